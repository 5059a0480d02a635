package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"tailor-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lockLog records row locks in the order they are taken. A nil log records nothing.
type lockLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *lockLog) take(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *lockLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *lockLog) taken() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// memDB is an in-memory stand-in for the Postgres schema. fakeTx snapshots it so a
// failed transaction leaves no trace, like a real rollback.
type memDB struct {
	mu         sync.Mutex
	customers  map[string]model.Customer
	suits      map[string]model.Suit
	workers    map[uint]model.Worker
	images     []model.Image
	users      map[uuid.UUID]model.User
	audits     []model.AuditLog
	nextWorker uint
	nextImage  uint
}

func newMemDB() *memDB {
	return &memDB{
		customers: map[string]model.Customer{},
		suits:     map[string]model.Suit{},
		workers:   map[uint]model.Worker{},
		users:     map[uuid.UUID]model.User{},
	}
}

func (db *memDB) clone() *memDB {
	c := newMemDB()
	for k, v := range db.customers {
		c.customers[k] = v
	}
	for k, v := range db.suits {
		c.suits[k] = v
	}
	for k, v := range db.workers {
		c.workers[k] = v
	}
	for k, v := range db.users {
		c.users[k] = v
	}
	c.images = append([]model.Image(nil), db.images...)
	c.audits = append([]model.AuditLog(nil), db.audits...)
	c.nextWorker = db.nextWorker
	c.nextImage = db.nextImage
	return c
}

func (db *memDB) restore(snap *memDB) {
	db.customers = snap.customers
	db.suits = snap.suits
	db.workers = snap.workers
	db.users = snap.users
	db.images = snap.images
	db.audits = snap.audits
	db.nextWorker = snap.nextWorker
	db.nextImage = snap.nextImage
}

// --- transaction manager ---

type fakeTx struct {
	db *memDB
}

type fakeTxKey struct{}

func (t *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	t.db.mu.Lock()
	snap := t.db.clone()
	t.db.mu.Unlock()

	err := fn(context.WithValue(ctx, fakeTxKey{}, true))
	if err != nil {
		t.db.mu.Lock()
		t.db.restore(snap)
		t.db.mu.Unlock()
	}
	return err
}

// --- customers ---

type fakeCustomerRepo struct {
	db    *memDB
	locks *lockLog
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.customers[c.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.db.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.customers, id)
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id string) (*model.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *fakeCustomerRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Customer, error) {
	r.locks.take("customer %s for update", id)
	return r.FindByID(ctx, id)
}

func (r *fakeCustomerRepo) List(_ context.Context) ([]model.CustomerListItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := make([]model.CustomerListItem, 0, len(r.db.customers))
	for _, c := range r.db.customers {
		var n int64
		for _, img := range r.db.images {
			if img.OwnerKind == model.ImageOwnerCustomer && img.OwnerID == c.ID {
				n++
			}
		}
		items = append(items, model.CustomerListItem{Customer: c, MeasurementImagesCount: n})
	}
	sort.Slice(items, func(i, j int) bool {
		return dueBefore(items[i].DueDate, items[j].DueDate, items[i].ID, items[j].ID)
	})
	return items, nil
}

func (r *fakeCustomerRepo) Search(_ context.Context, term string) ([]model.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Customer
	for _, c := range r.db.customers {
		if containsFold(term, c.ID, c.Name, c.PhoneNumber, c.InstagramID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCustomerRepo) UpdateAggregates(_ context.Context, id string, totalSuits int, dueDate *time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok {
		return nil
	}
	c.TotalSuits = totalSuits
	c.DueDate = dueDate
	r.db.customers[id] = c
	return nil
}

// --- suits ---

type fakeSuitRepo struct {
	db    *memDB
	locks *lockLog
}

func (r *fakeSuitRepo) Create(_ context.Context, s *model.Suit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.suits[s.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.db.suits[s.ID] = *s
	return nil
}

func (r *fakeSuitRepo) Update(_ context.Context, s *model.Suit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.suits[s.ID] = *s
	return nil
}

func (r *fakeSuitRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.suits, id)
	return nil
}

func (r *fakeSuitRepo) FindByID(_ context.Context, id string) (*model.Suit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.suits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeSuitRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Suit, error) {
	r.locks.take("suit %s for update", id)
	return r.FindByID(ctx, id)
}

func (r *fakeSuitRepo) Exists(_ context.Context, id string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.suits[id]
	return ok, nil
}

// viewsWhere must be called with the lock held.
func (r *fakeSuitRepo) viewsWhere(keep func(model.SuitView) bool) []model.SuitView {
	var out []model.SuitView
	for _, s := range r.db.suits {
		v := model.SuitView{Suit: s}
		if c, ok := r.db.customers[s.CustomerID]; ok {
			name, phone := c.Name, c.PhoneNumber
			v.CustomerName, v.CustomerPhone = &name, &phone
		}
		if s.WorkerID != nil {
			if w, ok := r.db.workers[*s.WorkerID]; ok {
				name := w.Name
				v.WorkerName = &name
			}
		}
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return dueBefore(out[i].DueDate, out[j].DueDate, out[i].ID, out[j].ID)
	})
	return out
}

func (r *fakeSuitRepo) FindViewByID(_ context.Context, id string) (*model.SuitView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	views := r.viewsWhere(func(v model.SuitView) bool { return v.ID == id })
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

func (r *fakeSuitRepo) List(_ context.Context) ([]model.SuitView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.viewsWhere(func(model.SuitView) bool { return true }), nil
}

func (r *fakeSuitRepo) ListByCustomer(_ context.Context, customerID string) ([]model.SuitView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.viewsWhere(func(v model.SuitView) bool { return v.CustomerID == customerID }), nil
}

func (r *fakeSuitRepo) ListByWorker(_ context.Context, workerID uint) ([]model.SuitView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.viewsWhere(func(v model.SuitView) bool { return v.WorkerID != nil && *v.WorkerID == workerID }), nil
}

func (r *fakeSuitRepo) Search(_ context.Context, term string) ([]model.SuitView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.viewsWhere(func(v model.SuitView) bool {
		return containsFold(term, v.ID, deref(v.CustomerName), deref(v.CustomerPhone))
	}), nil
}

func (r *fakeSuitRepo) CountByCustomer(_ context.Context, customerID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, s := range r.db.suits {
		if s.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r *fakeSuitRepo) MinDueDate(_ context.Context, customerID string) (*time.Time, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var earliest *time.Time
	for _, s := range r.db.suits {
		if s.CustomerID != customerID || s.DueDate == nil {
			continue
		}
		if earliest == nil || s.DueDate.Before(*earliest) {
			d := *s.DueDate
			earliest = &d
		}
	}
	return earliest, nil
}

func (r *fakeSuitRepo) ClearWorker(_ context.Context, workerID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, s := range r.db.suits {
		if s.WorkerID != nil && *s.WorkerID == workerID {
			s.WorkerID = nil
			r.db.suits[id] = s
			n++
		}
	}
	return n, nil
}

// --- workers ---

type fakeWorkerRepo struct {
	db    *memDB
	locks *lockLog
}

func (r *fakeWorkerRepo) Create(_ context.Context, w *model.Worker) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.nextWorker++
	w.ID = r.db.nextWorker
	r.db.workers[w.ID] = *w
	return nil
}

func (r *fakeWorkerRepo) Update(_ context.Context, w *model.Worker) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored := r.db.workers[w.ID]
	stored.Name = w.Name
	r.db.workers[w.ID] = stored
	return nil
}

func (r *fakeWorkerRepo) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.workers, id)
	return nil
}

func (r *fakeWorkerRepo) FindByID(_ context.Context, id uint) (*model.Worker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.workers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &w, nil
}

func (r *fakeWorkerRepo) FindByIDForUpdate(ctx context.Context, id uint) (*model.Worker, error) {
	r.locks.take("worker %d for update", id)
	return r.FindByID(ctx, id)
}

func (r *fakeWorkerRepo) FindByIDForKeyShare(ctx context.Context, id uint) (*model.Worker, error) {
	r.locks.take("worker %d for key share", id)
	return r.FindByID(ctx, id)
}

func (r *fakeWorkerRepo) List(_ context.Context) ([]model.Worker, error) {
	return r.Search(context.Background(), "")
}

func (r *fakeWorkerRepo) Search(_ context.Context, term string) ([]model.Worker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Worker
	for _, w := range r.db.workers {
		if containsFold(term, w.Name) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeWorkerRepo) AdjustAssigned(_ context.Context, id uint, delta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.workers[id]
	if !ok {
		return nil
	}
	w.SuitsAssigned += delta
	if w.SuitsAssigned < 0 {
		w.SuitsAssigned = 0
	}
	r.db.workers[id] = w
	return nil
}

func (r *fakeWorkerRepo) ResetAssigned(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if w, ok := r.db.workers[id]; ok {
		w.SuitsAssigned = 0
		r.db.workers[id] = w
	}
	return nil
}

// --- images ---

type fakeImageRepo struct {
	db        *memDB
	createErr error
}

func (r *fakeImageRepo) Create(_ context.Context, images []model.Image) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range images {
		r.db.nextImage++
		images[i].ID = r.db.nextImage
		images[i].CreatedAt = time.Now()
		r.db.images = append(r.db.images, images[i])
	}
	return nil
}

func (r *fakeImageRepo) ListByOwners(_ context.Context, kind string, ownerIDs ...string) ([]model.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Image
	for _, img := range r.db.images {
		if img.OwnerKind == kind && containsString(ownerIDs, img.OwnerID) {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) DeleteOwned(_ context.Context, kind, ownerID string, ids []uint) ([]model.Image, error) {
	return r.deleteWhere(func(img model.Image) bool {
		if img.OwnerKind != kind || img.OwnerID != ownerID {
			return false
		}
		for _, id := range ids {
			if img.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (r *fakeImageRepo) DeleteByOwners(_ context.Context, kind string, ownerIDs ...string) ([]model.Image, error) {
	return r.deleteWhere(func(img model.Image) bool {
		return img.OwnerKind == kind && containsString(ownerIDs, img.OwnerID)
	}), nil
}

func (r *fakeImageRepo) deleteWhere(match func(model.Image) bool) []model.Image {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var kept, removed []model.Image
	for _, img := range r.db.images {
		if match(img) {
			removed = append(removed, img)
		} else {
			kept = append(kept, img)
		}
	}
	r.db.images = kept
	return removed
}

func (r *fakeImageRepo) ListURLs(_ context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	urls := make([]string, 0, len(r.db.images))
	for _, img := range r.db.images {
		urls = append(urls, img.ImageURL)
	}
	return urls, nil
}

// --- users and audit ---

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.db.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeAuditRepo struct{ db *memDB }

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.db.audits = append(r.db.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, entityID string, offset, limit int) ([]model.AuditLog, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matched []model.AuditLog
	for i := len(r.db.audits) - 1; i >= 0; i-- {
		if entityID == "" || r.db.audits[i].EntityID == entityID {
			matched = append(matched, r.db.audits[i])
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.AuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// --- file store ---

type memFileStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	removed   []string
	saveErrAt int // 1-based save call that fails; 0 never fails
	saves     int
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: map[string][]byte{}}
}

func (s *memFileStore) Save(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErrAt > 0 && s.saves == s.saveErrAt {
		return "", errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "/uploads/" + folder + "/" + filename
	s.files[url] = data
	return url, nil
}

func (s *memFileStore) Remove(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, url)
	s.removed = append(s.removed, url)
	return nil
}

func (s *memFileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// --- wiring ---

type testEnv struct {
	db          *memDB
	locks       *lockLog
	store       *memFileStore
	imageRepo   *fakeImageRepo
	attachments AttachmentManager
	customers   CustomerService
	suits       SuitService
	workers     WorkerService
	search      SearchService
	audit       AuditService
}

var fixedNow = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	store := newMemFileStore()

	locks := &lockLog{}
	customerRepo := &fakeCustomerRepo{db: db, locks: locks}
	suitRepo := &fakeSuitRepo{db: db, locks: locks}
	workerRepo := &fakeWorkerRepo{db: db, locks: locks}
	imageRepo := &fakeImageRepo{db: db}
	auditRepo := &fakeAuditRepo{db: db}
	tx := &fakeTx{db: db}

	ids := NewIdentityAssigner()
	aggregates := NewAggregateMaintainer(customerRepo, suitRepo, workerRepo)
	attachments := NewAttachmentManager(imageRepo, store)

	customers := NewCustomerService(customerRepo, suitRepo, auditRepo, tx, ids, aggregates, attachments)
	customers.(*customerService).now = func() time.Time { return fixedNow }
	suits := NewSuitService(suitRepo, customerRepo, workerRepo, auditRepo, tx, ids, aggregates, attachments)
	suits.(*suitService).now = func() time.Time { return fixedNow }
	workers := NewWorkerService(workerRepo, suitRepo, auditRepo, tx, attachments)

	return &testEnv{
		db:          db,
		locks:       locks,
		store:       store,
		imageRepo:   imageRepo,
		attachments: attachments,
		customers:   customers,
		suits:       suits,
		workers:     workers,
		search:      NewSearchService(customers, suits, workers),
		audit:       NewAuditService(auditRepo),
	}
}

// --- helpers ---

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")
)

func upload(name string, data []byte) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func pngUpload(name string) Upload { return upload(name, pngHeader) }

func date(s string) *time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func strPtr(s string) *string { return &s }

func idPtr(s string) *IDField {
	f := IDField(s)
	return &f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dueBefore(a, b *time.Time, idA, idB string) bool {
	switch {
	case a == nil && b == nil:
		return idA < idB
	case a == nil:
		return false
	case b == nil:
		return true
	case a.Equal(*b):
		return idA < idB
	default:
		return a.Before(*b)
	}
}
