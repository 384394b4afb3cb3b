package database

import (
	"testing"

	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/models"
)

func TestOpenInMemoryCreatesSchema(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}

	for _, m := range models.All() {
		if !db.Migrator().HasTable(m) {
			t.Errorf("expected table for %T", m)
		}
	}
}

func TestOpenInMemoryIsIsolated(t *testing.T) {
	first, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}
	second, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}

	if err := first.Create(&models.User{Subject: "a", DisplayName: "A", Email: "a@x", Role: models.UserRoleUser}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty second database, found %d users", count)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	if _, err := Connect("mysql", "dsn"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestSchemaHasPrimaryKeys(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}

	for _, m := range models.All() {
		if !db.Migrator().HasColumn(m, "id") {
			t.Errorf("expected an id column for %T", m)
		}
	}
}

func TestCreatedRowsReadBackByID(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}

	champ := models.Championship{OwnerID: uuid.New(), Name: "Copa", Status: models.ChampionshipStatusActive}
	if err := db.Create(&champ).Error; err != nil {
		t.Fatalf("create championship: %v", err)
	}
	if champ.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned on create")
	}

	var loaded models.Championship
	if err := db.First(&loaded, "id = ?", champ.ID).Error; err != nil {
		t.Fatalf("load by id: %v", err)
	}
	if loaded.ID != champ.ID || loaded.Name != "Copa" {
		t.Errorf("loaded %+v, want id %s", loaded, champ.ID)
	}
}
