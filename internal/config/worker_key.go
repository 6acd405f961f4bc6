package config

type WorkerKeyStruct struct {
	PersistResultsQueue string
	PersistEventsQueue  string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue: "persist_results_queue",
	PersistEventsQueue:  "persist_events_queue",
}
