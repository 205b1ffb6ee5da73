/*
Package chartwise wires the analysis layer of a medical-record viewer: a
registry of interchangeable LLM providers, a catalog of prompt templates and
an engine that runs structured-output analyses against them.

The UI layer only needs four calls, all available on App:

  - GetProvider: look up a provider by id
  - CategoryConfig: look up the prompt and schema of a template category
  - RunAnalysis: run one category and get a Result envelope back
  - RunBatchAnalysis: run every category of a template concurrently

# Basic Usage

	app, err := chartwise.New(
		chartwise.WithSecrets(secrets.Env(".env")),
		chartwise.WithEngineOptions(analysis.WithCallTimeout(90*time.Second)),
	)
	if err != nil {
		return err
	}

	items, err := app.RunBatchAnalysis(ctx, analysis.BatchConfig{
		ProviderID: "gemini",
		TemplateID: templates.ClinicalOverviewID,
		UserPrompt: patientXML,
	})

# Events

Every run publishes Started and Completed or Failed events on a topic. By
default the topic is in-process; WithNATS moves it onto a NATS subject so
other processes can follow analysis progress. Subscribe attaches an
events.Hook to the topic.
*/
package chartwise
