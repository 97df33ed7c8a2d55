package main

import "kolboard/internal/app"

// @title           kolboard API
// @version         1.0
// @description     Pipeline and relationship management for KOL programs.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
