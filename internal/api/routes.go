// Package api holds the http handlers of the shop and registers them with the webserver.
package api

import "sync"

var initOnce sync.Once

// Init registers every api route, call before webserver.NewWebServer
func Init() {
	initOnce.Do(func() {
		registerHealthRoutes()
		registerAuthRoutes()
		registerProductRoutes()
		registerPillowRoutes()
		registerEPESheetRoutes()
		registerOrderRoutes()
		registerCompanyRoutes()
		registerInquiryRoutes()
		registerReviewRoutes()
	})
}
