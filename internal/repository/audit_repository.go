package repository

import (
    "context"
    "database/sql"
    "time"
)

// AdmissionBatchRecord is the persistence model for one promotion batch:
// how many admissions were requested for a queue and how many users were
// actually moved. Rows are written for every batch that ran, including
// batches that found an empty wait set.
type AdmissionBatchRecord struct {
    ID             uint64    // primary key of the admission_batches row
    QueueName      string    // queue the batch ran against
    RequestedCount int64     // per-batch ceiling that was requested
    AllowedCount   int64     // members actually moved to proceed
    CreatedAt      time.Time // insertion timestamp
}

// AuditRepo records promotion batches in the admission_batches table. It is
// an observability feature: writes are best-effort and callers log rather
// than fail when an insert does not land.
type AuditRepo struct {
    db *sql.DB
}

// NewAuditRepo returns a new AuditRepo bound to the provided database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// RecordBatch inserts one admission batch row.
func (r *AuditRepo) RecordBatch(ctx context.Context, queue string, requested, allowed int64) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO admission_batches (queue_name, requested_count, allowed_count) VALUES (?, ?, ?)`,
        queue, requested, allowed,
    )
    return err
}

// RecentBatches returns up to limit of the newest batches for a queue,
// newest first. Used by operators to eyeball the admission cadence.
func (r *AuditRepo) RecentBatches(ctx context.Context, queue string, limit int) ([]AdmissionBatchRecord, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, queue_name, requested_count, allowed_count, created_at
         FROM admission_batches WHERE queue_name = ?
         ORDER BY created_at DESC, id DESC LIMIT ?`,
        queue, limit,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var batches []AdmissionBatchRecord
    for rows.Next() {
        var b AdmissionBatchRecord
        if err := rows.Scan(&b.ID, &b.QueueName, &b.RequestedCount, &b.AllowedCount, &b.CreatedAt); err != nil {
            return nil, err
        }
        batches = append(batches, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return batches, nil
}
