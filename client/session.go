package client

import "context"

// Placeholder covariates sent with every prediction request. The dashboard
// has always sent these fixed values instead of deriving them from the
// record's date; kept as the documented default.
const (
	DefaultIsHoliday = 0
	DefaultWeek      = 1
	DefaultYear      = 2021
)

// Session holds the product list for one authenticated dashboard session.
// The list is fetched once by Load and then spliced locally by mutating
// calls instead of refetching. Not safe for concurrent use; the dashboard
// issues one call per user action.
type Session struct {
	api      *Client
	products []Product
	loaded   bool
}

func NewSession(api *Client) *Session {
	return &Session{api: api}
}

// Load fetches the product list. Subsequent calls are no-ops; use Reload to
// force a refetch.
func (s *Session) Load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.Reload(ctx)
}

func (s *Session) Reload(ctx context.Context) error {
	products, err := s.api.Products(ctx)
	if err != nil {
		return err
	}
	s.products = products
	s.loaded = true
	return nil
}

// Products returns the cached list. The slice is shared; callers must not
// mutate it.
func (s *Session) Products() []Product {
	return s.products
}

func (s *Session) Add(ctx context.Context, store, dept, size, typ int) (*Product, error) {
	product, err := s.api.AddProduct(ctx, store, dept, size, typ)
	if err != nil {
		return nil, err
	}
	s.products = append(s.products, *product)
	return product, nil
}

// Update applies the change on the server, then mirrors it into the cache.
// Zero-valued fields are skipped locally too, matching the server's
// zero-as-missing behavior.
func (s *Session) Update(ctx context.Context, id string, update ProductUpdate) error {
	if err := s.api.UpdateProduct(ctx, id, update); err != nil {
		return err
	}
	for i := range s.products {
		if s.products[i].ID != id {
			continue
		}
		if update.Store != 0 {
			s.products[i].Store = update.Store
		}
		if update.Dept != 0 {
			s.products[i].Dept = update.Dept
		}
		if update.Size != 0 {
			s.products[i].Size = update.Size
		}
		break
	}
	return nil
}

func (s *Session) Delete(ctx context.Context, id string) error {
	if _, err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Session) AddBulk(ctx context.Context, filename string, csvData []byte) ([]Product, error) {
	created, err := s.api.AddBulk(ctx, filename, csvData)
	if err != nil {
		return nil, err
	}
	s.products = append(s.products, created...)
	return created, nil
}

// Predict scores the entire cached product list with the fixed placeholder
// covariates.
func (s *Session) Predict(ctx context.Context) ([]int, error) {
	rows := make([]PredictionRow, 0, len(s.products))
	for _, p := range s.products {
		rows = append(rows, PredictionRow{
			Store:     p.Store,
			Dept:      p.Dept,
			IsHoliday: DefaultIsHoliday,
			Size:      p.Size,
			Week:      DefaultWeek,
			Type:      p.Type,
			Year:      DefaultYear,
		})
	}
	return s.api.Predict(ctx, rows)
}
