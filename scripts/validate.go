package main

import (
	"flag"
	"log"

	"tiketku/internal/validation"
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:8081", "Base URL of the API to check")
		customerEmail = flag.String("customer", "customer1@tiketku.my", "Customer email for authenticated checks")
		customerPass  = flag.String("customer-pass", "customer123", "Customer password")
		adminEmail    = flag.String("admin", "", "Admin email (empty skips admin checks)")
		adminPass     = flag.String("admin-pass", "", "Admin password")
	)
	flag.Parse()

	log.Printf("Starting API smoke checks against: %s", *baseURL)

	checker := validation.NewAPIChecker(*baseURL, *customerEmail, *customerPass, *adminEmail, *adminPass)
	if err := checker.CheckAll(); err != nil {
		log.Fatalf("Smoke checks failed: %v", err)
	}

	log.Println("Smoke checks passed")
}
