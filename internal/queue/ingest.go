package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/orchestrator"

	"github.com/rabbitmq/amqp091-go"
)

// IngestJobMsg is the message format on the ingest queue.
type IngestJobMsg struct {
	JobID        string `json:"job_id"`
	DocumentPath string `json:"document_path"`
}

// PublishIngestJob enqueues a document for asynchronous ingestion.
func PublishIngestJob(ch *amqp091.Channel, msg IngestJobMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, IngestQueue, data)
}

// ProcessIngest handles one ingest message. A pipeline failure is returned
// as an error so the consumer's retry and dead-letter handling kicks in.
func ProcessIngest(ctx context.Context, o *orchestrator.Orchestrator, msg string) error {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("invalid ingest message: %w", err)
	}

	res := o.IngestDocument(ctx, data.DocumentPath)
	if !res.Success {
		return fmt.Errorf("ingestion failed for %s: %s", data.DocumentPath, res.Error)
	}

	logger.Info(
		"[Queue] document ingested",
		"job_id", data.JobID,
		"document", data.DocumentPath,
		"concepts", res.Payload["concepts_count"],
		"relations", res.Payload["relations_count"],
	)
	return nil
}
