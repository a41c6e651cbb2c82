package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/store"
)

// TTLs. The hand-off record lives for the span of one chain; the id caches
// memoize durable ids across chains
const (
	RecordTTL  = 20 * time.Minute
	IDCacheTTL = 6 * time.Hour
)

// Key is the cache key for the hand-off record of one lead/note pair
func Key(leadID, noteID int64) string {
	return fmt.Sprintf("payload_lead_%d_note_%d", leadID, noteID)
}

// CompanyIDKey memoizes the durable row id for an external company id
func CompanyIDKey(companyID int64) string {
	return fmt.Sprintf("amo_crm_company_id_%d", companyID)
}

// LeadIDKey memoizes the durable row id for an external lead id
func LeadIDKey(leadID int64) string {
	return fmt.Sprintf("amo_crm_lead_id_%d", leadID)
}

// Cache is a typed JSON codec over the KV seam for LeadNote records and
// the small id caches. Reads and writes on the same key are not isolated;
// concurrent chains for the same note converge by last-writer-wins
type Cache struct {
	kv store.KV
}

// NewCache wraps the KV seam
func NewCache(kv store.KV) *Cache { return &Cache{kv: kv} }

// Get loads the hand-off record, returning a cache-miss error when the
// key is absent or expired. The miss error intentionally carries no payload
func (c *Cache) Get(ctx context.Context, leadID, noteID int64) (*LeadNote, error) {
	b, ok, err := c.kv.Get(ctx, Key(leadID, noteID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, perr.CacheMissf("no cached note data for lead %d note %d", leadID, noteID)
	}
	var p LeadNote
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, perr.JSONErrf("corrupt cached record for lead %d note %d: %v", leadID, noteID, err)
	}
	return &p, nil
}

// Put stores the record under the pair key, restarting the TTL
func (c *Cache) Put(ctx context.Context, p *LeadNote) error {
	b, err := json.Marshal(p)
	if err != nil {
		return perr.JSONErrf("encode cached record: %v", err)
	}
	return c.kv.Put(ctx, Key(p.LeadID, p.NoteID), b, RecordTTL)
}

// GetID reads a memoized durable row id; absent or expired means miss
func (c *Cache) GetID(ctx context.Context, key string) (int64, bool) {
	b, ok, err := c.kv.Get(ctx, key)
	if err != nil || !ok {
		return 0, false
	}
	id, perr2 := strconv.ParseInt(string(b), 10, 64)
	if perr2 != nil {
		return 0, false
	}
	return id, true
}

// PutID memoizes a durable row id for IDCacheTTL
func (c *Cache) PutID(ctx context.Context, key string, id int64) {
	_ = c.kv.Put(ctx, key, []byte(strconv.FormatInt(id, 10)), IDCacheTTL)
}
