package ingestion_test

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/cargamex/logistica-api/internal/domain/entity"
)

// Dobles en memoria de los puertos de persistencia y storage, con la misma
// semántica que los adaptadores de postgres: nil sin error cuando no hay fila.

type fakeClientRepo struct {
	clients map[string]*entity.Client
	updates int
}

func newFakeClientRepo(seed ...*entity.Client) *fakeClientRepo {
	r := &fakeClientRepo{clients: make(map[string]*entity.Client)}
	for _, c := range seed {
		cp := *c
		r.clients[c.ID] = &cp
	}
	return r
}

func (r *fakeClientRepo) Create(_ context.Context, client *entity.Client) error {
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *fakeClientRepo) Update(_ context.Context, client *entity.Client) error {
	r.updates++
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *fakeClientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Client, error) {
	for _, c := range r.clients {
		if c.TaxID == taxID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeClientRepo) SearchByName(_ context.Context, fragment string) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range r.clients {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(fragment)) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeInvoiceRepo struct {
	invoices map[string]*entity.Invoice
	lines    map[string][]*entity.InvoiceLineItem
	creates  int
	updates  int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[string]*entity.Invoice),
		lines:    make(map[string][]*entity.InvoiceLineItem),
	}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.creates++
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	r.updates++
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetByFiscalUUID(_ context.Context, fiscalUUID string) (*entity.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.FiscalUUID == fiscalUUID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) CreateLineItem(_ context.Context, item *entity.InvoiceLineItem) error {
	cp := *item
	r.lines[item.InvoiceID] = append(r.lines[item.InvoiceID], &cp)
	return nil
}

func (r *fakeInvoiceRepo) ListLineItems(_ context.Context, invoiceID string) ([]*entity.InvoiceLineItem, error) {
	return r.lines[invoiceID], nil
}

type fakeOperationRepo struct {
	ops     map[string]*entity.Operation
	assigns int
}

func newFakeOperationRepo(seed ...*entity.Operation) *fakeOperationRepo {
	r := &fakeOperationRepo{ops: make(map[string]*entity.Operation)}
	for _, op := range seed {
		cp := *op
		r.ops[op.ID] = &cp
	}
	return r
}

func (r *fakeOperationRepo) GetByID(_ context.Context, id string) (*entity.Operation, error) {
	op, ok := r.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *fakeOperationRepo) ListPending(_ context.Context, limit int) ([]*entity.Operation, error) {
	var out []*entity.Operation
	for _, op := range r.ops {
		if op.ClientID == "" {
			cp := *op
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeOperationRepo) AssignClient(_ context.Context, operationID, clientID string) error {
	op, ok := r.ops[operationID]
	if !ok {
		return errors.New("operación inexistente")
	}
	r.assigns++
	op.ClientID = clientID
	return nil
}

type fakeAttachmentRepo struct {
	atts map[string]*entity.Attachment
}

func newFakeAttachmentRepo(seed ...*entity.Attachment) *fakeAttachmentRepo {
	r := &fakeAttachmentRepo{atts: make(map[string]*entity.Attachment)}
	for _, att := range seed {
		cp := *att
		r.atts[att.ID] = &cp
	}
	return r
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, id string) (*entity.Attachment, error) {
	att, ok := r.atts[id]
	if !ok {
		return nil, nil
	}
	cp := *att
	return &cp, nil
}

func (r *fakeAttachmentRepo) ListByOperation(_ context.Context, operationID string) ([]*entity.Attachment, error) {
	var out []*entity.Attachment
	for _, att := range r.atts {
		if att.OperationID == operationID {
			cp := *att
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeBlobStore devuelve bytes por llave, con fallas inyectables.
type fakeBlobStore struct {
	blobs map[string][]byte
	fail  map[string]error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte), fail: make(map[string]error)}
}

func (s *fakeBlobStore) put(key string, data []byte) { s.blobs[key] = data }

func (s *fakeBlobStore) Fetch(_ context.Context, key string) ([]byte, error) {
	if err, ok := s.fail[key]; ok {
		return nil, err
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("llave inexistente: " + key)
	}
	return data, nil
}
