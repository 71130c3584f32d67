package delivery

import (
	"github.com/Vovarama1992/scribe/internal/ports"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hAuth *AuthHandler, auth ports.AuthService, hRec *RecognizeHandler) {

	// login публичный
	r.Post("/api/login", hAuth.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		r.Post("/api/recognize", hRec.Recognize)
		r.Get("/api/transcripts/{id}", hRec.GetTranscript)
	})
}
