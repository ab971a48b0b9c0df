// Package csvdir implements the ingest.Source interface over a watched
// directory of ticket CSV exports. Each file carries the columns
// ticket_id, timestamp, customer_id, subject, body. New or rewritten
// files trigger a change notification so ingestion reacts without
// waiting for the next poll interval.
package csvdir
