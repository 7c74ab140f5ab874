package main

import (
	"log"

	"healthbot/config"
	"healthbot/controllers"
	"healthbot/routes"
	"healthbot/services"
	"healthbot/utils"
)

func main() {
	config.InitDB()
	utils.InitS3()

	profiles := services.NewProfileService(config.DB)
	if err := profiles.WarmCache(); err != nil {
		log.Fatalf("failed to load profiles: %v", err)
	}

	hub := services.NewRealtimeHub()
	transport := services.NewHubTransport(hub)
	sessions := services.NewMemorySessionStore(services.DefaultSessionTTL)

	barcode, err := services.NewRekognitionBarcodeService()
	if err != nil {
		log.Fatalf("failed to init barcode reader: %v", err)
	}

	conv := services.NewConversation(
		sessions,
		profiles,
		services.NewWeatherService(),
		services.NewFoodService(),
		barcode,
	)

	push, err := services.NewPushService(config.DB)
	if err != nil {
		log.Printf("push notifications disabled: %v", err)
		push = nil
	}

	reminders := services.NewReminderService(config.DB, profiles, conv, transport, push)
	reminders.Start()
	defer reminders.Stop()

	climate := services.NewClimateService(config.DB)

	r := routes.SetupRouter(
		controllers.NewChatController(conv, transport),
		controllers.NewProfileController(profiles, conv),
		controllers.NewClimateController(climate),
		controllers.NewRealtimeController(hub),
		controllers.NewDeviceController(push),
	)
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
