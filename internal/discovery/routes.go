package discovery

import (
    "github.com/gorilla/mux"

    "github.com/admnberse-app/berse-backend-sub010/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
    api := router.PathPrefix("/api/v1/discovery").Subrouter()
    api.Use(authMiddleware.Authenticate)

    api.HandleFunc("/batch", handler.GetBatch).Methods("GET")
    api.HandleFunc("/swipes", handler.RecordSwipe).Methods("POST")
    api.HandleFunc("/swipes/connection-sent", handler.MarkConnectionSent).Methods("POST")
    api.HandleFunc("/stats", handler.GetStats).Methods("GET")
}
