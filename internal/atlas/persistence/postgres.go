// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema (created by the operator, not by this package):
//
//	CREATE TABLE applied_commits (
//	    commit_id   TEXT PRIMARY KEY,
//	    applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE tov_scores (
//	    unicode_address TEXT PRIMARY KEY,
//	    eei_id          TEXT NOT NULL,
//	    score           DOUBLE PRECISION NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

// PostgresPersister checkpoints entries transactionally: each entry's
// applied_commits row and tov_scores upsert happen in one transaction, and
// the unique constraint on commit_id makes a replayed batch a no-op.
type PostgresPersister struct {
	DB *sql.DB
}

func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{DB: db}
}

func (p *PostgresPersister) CommitBatch(entries []CheckpointEntry) error {
	ctx := context.Background()
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistence: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO applied_commits (commit_id) VALUES ($1) ON CONFLICT DO NOTHING`, e.CommitID)
		if err != nil {
			return fmt.Errorf("persistence: insert applied_commits for %s: %w", e.EEIID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue // already applied
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tov_scores (unicode_address, eei_id, score) VALUES ($1, $2, $3)
			 ON CONFLICT (unicode_address) DO UPDATE SET eei_id = $2, score = $3, updated_at = now()`,
			e.UnicodeAddress, e.EEIID, e.Score); err != nil {
			return fmt.Errorf("persistence: upsert tov_scores for %s: %w", e.EEIID, err)
		}
	}
	return tx.Commit()
}
