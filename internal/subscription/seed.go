package subscription

import (
	"log"
	"os"

	"gorm.io/gorm"

	"docforge/internal/models"
)

// EnsureDefaultPlans seeds the read-only plan catalog on first boot.
func EnsureDefaultPlans(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.SubscriptionPlan{}).Count(&count).Error; err != nil {
		log.Printf("Error counting plans: %v", err)
		return
	}
	if count > 0 {
		return
	}

	plans := []models.SubscriptionPlan{
		{
			Name:              "Starter",
			PriceMonthlyCents: 1990,
			PriceYearlyCents:  19900,
			Features:          `["Geração com chave compartilhada","Até 20 documentos por mês","Quizzes ilimitados"]`,
			StripeMonthlyID:   os.Getenv("STRIPE_PRICE_STARTER_MONTHLY"),
			StripeYearlyID:    os.Getenv("STRIPE_PRICE_STARTER_YEARLY"),
			IsActive:          true,
		},
		{
			Name:              "Pro",
			PriceMonthlyCents: 4990,
			PriceYearlyCents:  49900,
			Features:          `["Geração ilimitada","Modelos customizados","Suporte prioritário"]`,
			StripeMonthlyID:   os.Getenv("STRIPE_PRICE_PRO_MONTHLY"),
			StripeYearlyID:    os.Getenv("STRIPE_PRICE_PRO_YEARLY"),
			IsActive:          true,
		},
	}

	for i := range plans {
		if err := db.Create(&plans[i]).Error; err != nil {
			log.Printf("Error seeding plan %s: %v", plans[i].Name, err)
		}
	}
	log.Printf("Seeded %d subscription plans", len(plans))
}
