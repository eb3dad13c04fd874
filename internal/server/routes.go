package server

func (s *Server) registerRoutes() {
	s.echo.GET("/api/health", s.handleHealth)

	s.echo.POST("/api/analyze", s.handleAnalyze)
	s.echo.POST("/api/preview", s.handlePreview)
	s.echo.POST("/api/generate", s.handleGenerate)

	s.echo.DELETE("/api/session/:id", s.handleDeleteSession)
}
