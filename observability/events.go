package observability

// Event type constants emitted by the pipeline, stage, and broker packages.
// Grouped here (rather than in each package) so a consumer wiring up a
// single Observer can see the full event surface in one place.
const (
	// Stage / worker lifecycle
	EventStageStart    EventType = "stage.start"
	EventWorkerStart   EventType = "worker.start"
	EventWorkerItem    EventType = "worker.item"
	EventWorkerError   EventType = "worker.error"
	EventWorkerExit    EventType = "worker.exit"
	EventStageTeardown EventType = "stage.teardown"

	// Pipeline lifecycle
	EventPipelineStart   EventType = "pipeline.start"
	EventPipelineFeed    EventType = "pipeline.feed"
	EventPipelineJoin    EventType = "pipeline.join"
	EventPipelineDrained EventType = "pipeline.drained"

	// Messaging Center (broker) lifecycle
	EventBrokerRegister EventType = "broker.register"
	EventBrokerSend     EventType = "broker.send"
	EventBrokerDrop     EventType = "broker.drop"
	EventBrokerForget   EventType = "broker.forget"
	EventBrokerFlush    EventType = "broker.flush"
	EventBrokerShutdown EventType = "broker.shutdown"
)
