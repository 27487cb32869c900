package erpsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// fakeERP is an in-memory ERP keyed by document type and native name
type fakeERP struct {
	mu       sync.Mutex
	tenantID uuid.UUID
	docs     map[string]map[string]erpsync.Document
	seq      map[string]int

	// createErrs fails Create for a given external ID
	createErrs map[string]error
	// findErr fails every FindByExternalID
	findErr error
	// actionErr fails every InvokeAction
	actionErr error

	creates []erpsync.Document
	actions []string
	gets    int
}

func newFakeERP() *fakeERP {
	return &fakeERP{
		tenantID:   uuid.New(),
		docs:       make(map[string]map[string]erpsync.Document),
		seq:        make(map[string]int),
		createErrs: make(map[string]error),
	}
}

func (f *fakeERP) TenantID() uuid.UUID { return f.tenantID }

func (f *fakeERP) Create(_ context.Context, docType string, payload erpsync.Document) (*erpsync.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.createErrs[payload.ExternalID()]; err != nil {
		return nil, err
	}
	f.seq[docType]++
	name := fmt.Sprintf("%s-%04d", docType, f.seq[docType])

	doc := payload.Clone()
	doc[erpsync.NameField] = name
	doc[erpsync.DocTypeField] = docType
	if _, ok := doc[erpsync.DocStatusField]; !ok {
		doc[erpsync.DocStatusField] = 0
	}
	f.put(docType, doc)
	f.creates = append(f.creates, doc)
	return &erpsync.CreateResult{Name: name, Raw: doc.Clone()}, nil
}

func (f *fakeERP) Update(_ context.Context, docType, name string, payload erpsync.Document) (erpsync.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[docType][name]
	if !ok {
		return nil, erpsync.NewNotFoundError(docType + " " + name + " not found")
	}
	for k, v := range payload {
		doc[k] = v
	}
	return doc.Clone(), nil
}

func (f *fakeERP) Get(_ context.Context, docType, name string) (erpsync.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++
	doc, ok := f.docs[docType][name]
	if !ok {
		return nil, erpsync.NewNotFoundError(docType + " " + name + " not found")
	}
	return doc.Clone(), nil
}

func (f *fakeERP) FindByExternalID(_ context.Context, docType, externalID string) (erpsync.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, doc := range f.docs[docType] {
		if doc.ExternalID() == externalID {
			return doc.Clone(), nil
		}
	}
	return nil, nil
}

func (f *fakeERP) InvokeAction(_ context.Context, doc erpsync.Document, action string) (erpsync.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.actions = append(f.actions, action)
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	docType := doc.String(erpsync.DocTypeField)
	stored, ok := f.docs[docType][doc.NativeName()]
	if !ok {
		return nil, erpsync.NewNotFoundError("document not found")
	}
	switch action {
	case erpsync.ActionSubmit:
		stored[erpsync.DocStatusField] = 1
		stored[erpsync.StatusField] = "To Deliver and Bill"
	case erpsync.ActionCancel:
		stored[erpsync.DocStatusField] = 2
		stored[erpsync.StatusField] = "Cancelled"
	default:
		stored[erpsync.StatusField] = action
	}
	return stored.Clone(), nil
}

func (f *fakeERP) Ping(context.Context) (string, error) { return "sync@example.com", nil }

// seed stores a document as if it had been created earlier
func (f *fakeERP) seed(docType string, doc erpsync.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc[erpsync.DocTypeField] = docType
	f.put(docType, doc)
}

func (f *fakeERP) put(docType string, doc erpsync.Document) {
	if f.docs[docType] == nil {
		f.docs[docType] = make(map[string]erpsync.Document)
	}
	f.docs[docType][doc.NativeName()] = doc
}

func (f *fakeERP) count(docType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs[docType])
}

func (f *fakeERP) countByExternalID(docType, externalID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, doc := range f.docs[docType] {
		if doc.ExternalID() == externalID {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Factories, stores and sources
// ---------------------------------------------------------------------------

type fakeFactory struct {
	conn  erpsync.Connector
	err   error
	calls int
	last  *erpsync.ERPConfig
}

func (f *fakeFactory) Connect(_ context.Context, cfg *erpsync.ERPConfig) (erpsync.Connector, error) {
	f.calls++
	f.last = cfg
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

type fakeConfigs struct {
	configs map[uuid.UUID]*erpsync.ERPConfig
}

func newFakeConfigs(cfgs ...*erpsync.ERPConfig) *fakeConfigs {
	f := &fakeConfigs{configs: make(map[uuid.UUID]*erpsync.ERPConfig)}
	for _, c := range cfgs {
		f.configs[c.TenantID] = c
	}
	return f
}

func (f *fakeConfigs) GetERPConfig(_ context.Context, tenantID uuid.UUID) (*erpsync.ERPConfig, error) {
	cfg, ok := f.configs[tenantID]
	if !ok {
		return nil, erpsync.ErrConfigNotFound
	}
	out := *cfg
	return &out, nil
}

type fakeLinks struct {
	mu      sync.Mutex
	links   map[string]*erpsync.DocumentLink
	saveErr error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{links: make(map[string]*erpsync.DocumentLink)}
}

func linkKey(tenantID uuid.UUID, kind erpsync.EntityKind, externalID string) string {
	return tenantID.String() + "/" + kind.String() + "/" + externalID
}

func (l *fakeLinks) Save(_ context.Context, link *erpsync.DocumentLink) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.saveErr != nil {
		return l.saveErr
	}
	copied := *link
	l.links[linkKey(link.TenantID, link.Kind, link.ExternalID)] = &copied
	return nil
}

func (l *fakeLinks) FindNativeName(_ context.Context, tenantID uuid.UUID, kind erpsync.EntityKind, externalID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if link, ok := l.links[linkKey(tenantID, kind, externalID)]; ok {
		return link.NativeName, nil
	}
	return "", nil
}

// fakeSource serves records per kind with offset paging
type fakeSource struct {
	records map[erpsync.EntityKind][]erpsync.Record
	errs    map[erpsync.EntityKind]error
	panics  map[erpsync.EntityKind]bool
	pages   []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		records: make(map[erpsync.EntityKind][]erpsync.Record),
		errs:    make(map[erpsync.EntityKind]error),
		panics:  make(map[erpsync.EntityKind]bool),
	}
}

func (s *fakeSource) LoadPage(_ context.Context, _ uuid.UUID, kind erpsync.EntityKind, offset, limit int) ([]erpsync.Record, error) {
	s.pages = append(s.pages, fmt.Sprintf("%s@%d", kind, offset))
	if s.panics[kind] {
		panic("loader exploded")
	}
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	all := s.records[kind]
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func testConfig(tenantID uuid.UUID) *erpsync.ERPConfig {
	return &erpsync.ERPConfig{
		TenantID:             tenantID,
		BaseURL:              "https://erp.example.com",
		APIKey:               "key",
		APISecret:            "secret",
		DefaultCustomerGroup: "Retail",
		DefaultTerritory:     "Germany",
		Company:              "Cartzilla GmbH",
		DefaultWarehouse:     "Stores - CZ",
		Enabled:              true,
	}
}

func customer(name string) *erpsync.Customer {
	return &erpsync.Customer{ID: uuid.New(), Name: name, Type: erpsync.CustomerTypeCompany}
}

func customers(names ...string) []erpsync.Record {
	out := make([]erpsync.Record, 0, len(names))
	for _, n := range names {
		out = append(out, customer(n))
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
