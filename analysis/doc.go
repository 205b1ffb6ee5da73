// Package analysis drives structured-output analyses of patient data.
//
// An Engine resolves a provider and a template category, calls the provider
// once and records the run. Every run moves from running to either completed
// or failed; there are no retries. Callers always get a Result envelope back,
// never an error, so a UI can render the outcome of each category as is.
//
// RunBatchAnalysis fans one run out per category of a template and waits for
// all of them. Records are kept in memory, bounded by WithHistoryLimit and
// evicted in insertion order.
//
//	engine := analysis.NewEngine(registry, prompts,
//	    analysis.WithCallTimeout(90*time.Second),
//	    analysis.WithHook(broker.Publisher(topic)),
//	)
//	result := engine.RunAnalysis(ctx, analysis.Config{
//	    ProviderID:  "groq",
//	    TemplateID:  templates.ClinicalOverviewID,
//	    CategoryKey: "criticalAlerts",
//	    UserPrompt:  patientXML,
//	})
//	if !result.Success {
//	    log.Println(result.Error)
//	}
package analysis
