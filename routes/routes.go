package routes

import (
	"net/http"

	"tripmate_server/controllers"
	"tripmate_server/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up the service-level routes
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// RegisterSwipeRoutes sets up routes for swipes under /api/swipes
func RegisterSwipeRoutes(r *mux.Router, coordinator controllers.Swiper, limiter *controllers.UserRateLimiter) {
	controller := controllers.NewSwipeController(coordinator, limiter)

	swipeRouter := r.PathPrefix("/api/swipes").Subrouter()
	swipeRouter.HandleFunc("", controller.HandleSwipe).Methods("POST")
}

// RegisterMatchRoutes sets up routes for match-related operations under /api/matches
func RegisterMatchRoutes(r *mux.Router, store services.MatchStore) {
	controller := controllers.NewMatchController(store)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("", controller.GetMatches).Methods("GET") // /api/matches?userId=
	matchRouter.HandleFunc("/pair", controller.GetPair).Methods("GET")
	matchRouter.HandleFunc("/rejected", controller.GetRejected).Methods("GET")
	matchRouter.HandleFunc("/{pairKey}/status", controller.UpdateStatus).Methods("PATCH")
}

// RegisterSocketRoutes mounts the push transports
func RegisterSocketRoutes(r *mux.Router, socketIO http.Handler, ws http.Handler) {
	if socketIO != nil {
		r.PathPrefix("/socket.io/").Handler(socketIO)
	}
	if ws != nil {
		r.Handle("/ws", ws)
	}
}
