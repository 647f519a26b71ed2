package internal

import (
	"net/http"
	"wayfarer/internal/controllers"
	"wayfarer/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/turn", http.HandlerFunc(apiController.RecordTurn))

	routers.Get("/journal", http.HandlerFunc(apiController.GetJournal))
	routers.Get("/journal/day", http.HandlerFunc(apiController.GetDayEntries))
	routers.Post("/journal/entry", http.HandlerFunc(apiController.SaveEntry))
	routers.Post("/journal/update", http.HandlerFunc(apiController.UpdateJournalEntry))
	routers.Get("/locations", http.HandlerFunc(apiController.GetLocations))

	routers.Get("/sessions", http.HandlerFunc(apiController.GetSessions))
	routers.Get("/session", http.HandlerFunc(apiController.GetSessionInfo))
	routers.Get("/session/messages", http.HandlerFunc(apiController.GetMessages))
	routers.Get("/session/digest", http.HandlerFunc(apiController.GetSessionDigest))
	routers.Post("/session/clear", http.HandlerFunc(apiController.ClearSession))
	routers.Post("/session/delete", http.HandlerFunc(apiController.DeleteSession))

	routers.Get("/profile", http.HandlerFunc(apiController.GetProfile))
	routers.Post("/profile/update", http.HandlerFunc(apiController.UpdateProfile))
	routers.Post("/profile/delete", http.HandlerFunc(apiController.DeleteProfile))
	routers.Get("/profile/places", http.HandlerFunc(apiController.GetVisitedPlaces))

	return routers
}
