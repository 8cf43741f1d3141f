package models

import (
	"log"

	"github.com/homiestan/homiestan_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Home{}, &Room{}, &RoomMedia{},
		&InspectionLink{}, &RoomReport{}, &InspectionReport{},
		&AnalysisMessageRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
