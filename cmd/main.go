package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/accrual"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/audit"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/auth"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/banktxn"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/commission"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/config"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/deal"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeevent"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/feeplan"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/invoice"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/notification"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/reconciliation"
	"github.com/Ghiles-CTO/Versotech-sub025/internal/utils/db"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("could not connect to database:", err)
	}

	migrations := []func(*gorm.DB) error{
		deal.Migrate,
		feeplan.Migrate,
		feeevent.Migrate,
		invoice.Migrate,
		commission.Migrate,
		banktxn.Migrate,
		reconciliation.Migrate,
		audit.Migrate,
	}
	for _, migrate := range migrations {
		if err := migrate(database); err != nil {
			log.Fatal("migration failed:", err)
		}
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	notifier := notification.NewWebhookNotifier(cfg.NotifyWebhookURL)
	auditStore := audit.NewStore(database, cfg.DocumentDir)

	dealRepo := deal.NewRepository(database)
	planRepo := feeplan.NewRepository(database)
	eventRepo := feeevent.NewRepository(database)
	invoiceRepo := invoice.NewRepository(database)
	txnRepo := banktxn.NewRepository(database)

	scheduler := accrual.NewScheduler(dealRepo, planRepo, eventRepo)
	aggregator := invoice.NewAggregator(database, cfg.InvoiceDueDays)
	importer := banktxn.NewImporter(database, cfg.DefaultCurrency)
	matcher := reconciliation.NewMatcher(database, reconciliation.DefaultMatcherConfig())
	reconService := reconciliation.NewService(database, auditStore)

	// One commission ledger per variant, fixed at startup.
	introducer := commission.NewLedger(database, commission.KindIntroducer, notifier, auditStore, cfg.InvoiceDueDays)
	partner := commission.NewLedger(database, commission.KindPartner, notifier, auditStore, cfg.InvoiceDueDays)
	commercialPartner := commission.NewLedger(database, commission.KindCommercialPartner, notifier, auditStore, cfg.InvoiceDueDays)

	dealHandler := deal.NewHandler(dealRepo)
	planHandler := feeplan.NewHandler(planRepo)
	eventHandler := feeevent.NewHandler(eventRepo)
	accrualHandler := accrual.NewHandler(scheduler)
	invoiceHandler := invoice.NewHandler(invoiceRepo, aggregator)
	commissionHandler := commission.NewHandler(introducer, partner, commercialPartner)
	txnHandler := banktxn.NewHandler(txnRepo, importer)
	reconHandler := reconciliation.NewHandler(matcher, reconService)

	r := mux.NewRouter()
	r.Use(verifier.Middleware)

	staffOnly := func(h http.HandlerFunc) http.Handler { return auth.RequireStaff(h) }

	// Deal routes
	r.Handle("/deals", staffOnly(dealHandler.Create)).Methods("POST")
	r.HandleFunc("/deals", dealHandler.List).Methods("GET")
	r.HandleFunc("/deals/{id}", dealHandler.Get).Methods("GET")
	r.Handle("/deals/{id}/subscriptions", staffOnly(dealHandler.CreateSubscription)).Methods("POST")
	r.Handle("/deals/{id}/valuations", staffOnly(dealHandler.CreateValuation)).Methods("POST")

	// Fee plan routes, staff-only for anything that changes terms
	r.Handle("/fee-plans", staffOnly(planHandler.Create)).Methods("POST")
	r.HandleFunc("/fee-plans", planHandler.List).Methods("GET")
	r.HandleFunc("/fee-plans/{id}", planHandler.Get).Methods("GET")
	r.Handle("/fee-plans/{id}/archive", staffOnly(planHandler.Archive)).Methods("POST")
	r.Handle("/fee-plans/{id}/components", staffOnly(planHandler.AddComponent)).Methods("POST")

	// Accrual and fee event routes
	r.HandleFunc("/deals/{id}/fee-events/compute", accrualHandler.Compute).Methods("POST")
	r.HandleFunc("/deals/{id}/fee-estimate", accrualHandler.Estimate).Methods("GET")
	r.HandleFunc("/deals/{id}/fee-events", eventHandler.ListByDeal).Methods("GET")
	r.HandleFunc("/fee-events/{id}/void", eventHandler.Void).Methods("POST")

	// Invoice routes
	r.HandleFunc("/invoices/aggregate", invoiceHandler.Aggregate).Methods("POST")
	r.HandleFunc("/invoices", invoiceHandler.List).Methods("GET")
	r.HandleFunc("/invoices/{id}", invoiceHandler.Get).Methods("GET")
	r.HandleFunc("/invoices/{id}/send", invoiceHandler.Send).Methods("POST")
	r.HandleFunc("/invoices/{id}/cancel", invoiceHandler.CancelInvoice).Methods("POST")

	// Commission routes
	r.HandleFunc("/commissions", commissionHandler.Accrue).Methods("POST")
	r.HandleFunc("/commissions", commissionHandler.List).Methods("GET")
	r.HandleFunc("/commissions/payout-requests", commissionHandler.RequestPayout).Methods("POST")
	r.HandleFunc("/commissions/{id}/invoice", commissionHandler.SubmitInvoice).Methods("POST")
	r.HandleFunc("/commissions/{id}/approve-invoice", commissionHandler.ApproveInvoice).Methods("POST")
	r.HandleFunc("/commissions/{id}/confirm-payment", commissionHandler.ConfirmPayment).Methods("POST")
	r.HandleFunc("/commissions/{id}/cancel", commissionHandler.Cancel).Methods("POST")

	// Bank transaction and reconciliation routes
	r.HandleFunc("/bank-transactions/import", txnHandler.Import).Methods("POST")
	r.HandleFunc("/bank-transactions", txnHandler.List).Methods("GET")
	r.HandleFunc("/bank-transactions/{id}", txnHandler.Get).Methods("GET")
	r.HandleFunc("/bank-transactions/{id}/matches", reconHandler.ListForTransaction).Methods("GET")
	r.HandleFunc("/bank-transactions/{id}/unmatch", reconHandler.Unmatch).Methods("POST")
	r.HandleFunc("/reconciliation/propose", reconHandler.Propose).Methods("POST")
	r.HandleFunc("/matches/{id}/approve", reconHandler.Approve).Methods("POST")
	r.HandleFunc("/matches/{id}/reject", reconHandler.Reject).Methods("POST")
	r.HandleFunc("/matches/{id}/reverse", reconHandler.Reverse).Methods("POST")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)

	fmt.Println("server listening on", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, handler))
}
