package history

import (
	"context"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/echotrust/advisory-backend/database"
	"github.com/echotrust/advisory-backend/model"
)

// ArangoStore persists advisory state history in the advisory_state
// collection. Transition runs a single AQL statement so the close of the
// superseded version and the insert of the new one commit together.
type ArangoStore struct {
	db database.DBConnection
}

func NewArangoStore(db database.DBConnection) *ArangoStore {
	return &ArangoStore{db: db}
}

func (s *ArangoStore) Ping(ctx context.Context) error {
	cursor, err := s.db.Database.Query(ctx, "RETURN 1", &arangodb.QueryOptions{})
	if err != nil {
		return err
	}
	return cursor.Close()
}

func (s *ArangoStore) queryOne(ctx context.Context, query string, bindVars map[string]interface{}) (*model.AdvisoryStateRecord, error) {
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var rec model.AdvisoryStateRecord
		if _, err := cursor.ReadDocument(ctx, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}
	return nil, nil
}

func (s *ArangoStore) queryMany(ctx context.Context, query string, bindVars map[string]interface{}) ([]model.AdvisoryStateRecord, error) {
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []model.AdvisoryStateRecord
	for cursor.HasMore() {
		var rec model.AdvisoryStateRecord
		if _, err := cursor.ReadDocument(ctx, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *ArangoStore) Current(ctx context.Context, advisoryID string) (*model.AdvisoryStateRecord, error) {
	query := `
		FOR rec IN advisory_state
			FILTER rec.advisory_id == @advisory_id AND rec.is_current == true
			LIMIT 1
			RETURN rec
	`
	return s.queryOne(ctx, query, map[string]interface{}{"advisory_id": advisoryID})
}

func (s *ArangoStore) AtTime(ctx context.Context, advisoryID string, t time.Time) (*model.AdvisoryStateRecord, error) {
	// Timestamps are stored as RFC3339 strings whose fractional-second
	// precision varies, so lexical comparison misorders them. DATE_TIMESTAMP
	// compares the instants.
	query := `
		FOR rec IN advisory_state
			FILTER rec.advisory_id == @advisory_id
			FILTER DATE_TIMESTAMP(rec.effective_from) <= DATE_TIMESTAMP(@at)
			FILTER rec.effective_to == null OR DATE_TIMESTAMP(rec.effective_to) > DATE_TIMESTAMP(@at)
			LIMIT 1
			RETURN rec
	`
	bindVars := map[string]interface{}{
		"advisory_id": advisoryID,
		"at":          t.UTC().Format(time.RFC3339Nano),
	}
	return s.queryOne(ctx, query, bindVars)
}

func (s *ArangoStore) History(ctx context.Context, advisoryID string) ([]model.AdvisoryStateRecord, error) {
	query := `
		FOR rec IN advisory_state
			FILTER rec.advisory_id == @advisory_id
			SORT DATE_TIMESTAMP(rec.effective_from) ASC
			RETURN rec
	`
	return s.queryMany(ctx, query, map[string]interface{}{"advisory_id": advisoryID})
}

func (s *ArangoStore) AllCurrent(ctx context.Context) ([]model.AdvisoryStateRecord, error) {
	query := `
		FOR rec IN advisory_state
			FILTER rec.is_current == true
			SORT rec.advisory_id ASC
			RETURN rec
	`
	return s.queryMany(ctx, query, nil)
}

func (s *ArangoStore) Transition(ctx context.Context, rec model.AdvisoryStateRecord, supersedes string) error {
	rec.IsCurrent = true
	rec.EffectiveTo = nil

	// The FILTER on history_id makes this a compare-and-swap: if another
	// writer superseded the record we read, matched is 0 and we signal a
	// conflict instead of inserting a second current version.
	query := `
		LET matched = (
			FOR cur IN advisory_state
				FILTER cur.advisory_id == @advisory_id AND cur.is_current == true
				RETURN cur
		)
		LET expected = (
			FOR cur IN matched
				FILTER cur.history_id == @supersedes
				UPDATE cur WITH { is_current: false, effective_to: @effective_from } IN advisory_state
				RETURN NEW
		)
		FILTER LENGTH(matched) == LENGTH(expected) AND LENGTH(matched) == @expect_count
		INSERT @record INTO advisory_state
		RETURN NEW.history_id
	`

	expectCount := 0
	if supersedes != "" {
		expectCount = 1
	}

	// Passing the time.Time itself makes the closed record's effective_to
	// serialize identically to the new record's effective_from, so the two
	// windows abut exactly.
	bindVars := map[string]interface{}{
		"advisory_id":    rec.AdvisoryID,
		"supersedes":     supersedes,
		"effective_from": rec.EffectiveFrom,
		"expect_count":   expectCount,
		"record":         rec,
	}

	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return ErrConflict
	}
	return nil
}
