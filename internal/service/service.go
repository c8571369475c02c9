package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"lapakpos/backend/internal/cache"
	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/export"
	"lapakpos/backend/internal/report"
	"lapakpos/backend/internal/store"
	"lapakpos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo            store.Repository
	artifacts       cache.ArtifactCache
	defaultOutletID string
	artifactTTL     time.Duration
}

func New(repo store.Repository, artifacts cache.ArtifactCache, defaultOutletID string, artifactTTL time.Duration) *Service {
	if defaultOutletID == "" {
		defaultOutletID = "out-pusat"
	}
	if artifacts == nil {
		artifacts = cache.NoopArtifactCache{}
	}
	if artifactTTL <= 0 {
		artifactTTL = 15 * time.Minute
	}

	return &Service{
		repo:            repo,
		artifacts:       artifacts,
		defaultOutletID: defaultOutletID,
		artifactTTL:     artifactTTL,
	}
}

func (s *Service) ListOutlets(ctx context.Context) ([]domain.Outlet, error) {
	return s.repo.ListOutlets(ctx)
}

func (s *Service) CreateOutlet(ctx context.Context, req domain.OutletCreateRequest) (domain.Outlet, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return domain.Outlet{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" {
		return domain.Outlet{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateOutlet(ctx, domain.Outlet{
		Name:    req.Name,
		Address: req.Address,
		Status:  domain.OutletStatusActive,
	})
	if err != nil {
		return domain.Outlet{}, err
	}

	s.logAudit(ctx, created.ID, "outlet_create", "outlet", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) UpdateOutlet(ctx context.Context, id string, req domain.OutletUpdateRequest) (domain.Outlet, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return domain.Outlet{}, err
	}

	outlet, err := s.repo.GetOutletByID(ctx, id)
	if err != nil {
		return domain.Outlet{}, err
	}
	if req.Name != nil {
		outlet.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		outlet.Address = strings.TrimSpace(*req.Address)
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if status != domain.OutletStatusActive && status != domain.OutletStatusInactive {
			return domain.Outlet{}, store.ErrInvalidInput
		}
		outlet.Status = status
	}

	updated, err := s.repo.UpdateOutlet(ctx, *outlet)
	if err != nil {
		return domain.Outlet{}, err
	}

	s.logAudit(ctx, updated.ID, "outlet_update", "outlet", updated.ID, fmt.Sprintf("name=%s,status=%s", updated.Name, updated.Status))
	return *updated, nil
}

func (s *Service) ListProducts(ctx context.Context, outletID string) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, outletID)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return domain.Product{}, err
	}

	if req.OutletID == "" {
		req.OutletID = s.defaultOutletID
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Price < 1 || req.Stock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		OutletID: req.OutletID,
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, created.OutletID, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.Price, created.Stock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	updated, err := s.repo.UpdateProduct(ctx, *product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, updated.OutletID, "product_update", "product", updated.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", updated.Name, updated.Price, updated.Stock))
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return err
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, product.OutletID, "product_delete", "product", product.ID, fmt.Sprintf("name=%s", product.Name))
	return nil
}

// Checkout validates the cart, snapshots product data into the transaction,
// applies the flat tax and decrements stock. Item snapshots keep name,
// category and unit price so later reports survive product edits and deletes.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CheckoutResponse{}, fmt.Errorf("authenticated user required")
	}

	if req.OutletID == "" {
		req.OutletID = s.defaultOutletID
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}

	if _, err := s.repo.GetOutletByID(ctx, req.OutletID); err != nil {
		return domain.CheckoutResponse{}, err
	}

	cart := normalizeCart(req.CartItems)
	if len(cart) == 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}

	ids := make([]string, 0, len(cart))
	for _, item := range cart {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	subtotal := int64(0)
	items := make([]domain.TransactionItem, 0, len(cart))
	for _, line := range cart {
		product, exists := products[line.ProductID]
		if !exists || product.OutletID != req.OutletID {
			return domain.CheckoutResponse{}, store.ErrInvalidInput
		}
		subtotal += int64(line.Qty) * product.Price
		items = append(items, domain.TransactionItem{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			Qty:       line.Qty,
			UnitPrice: product.Price,
		})
	}

	total := int64(math.Round(float64(subtotal) * (1 + domain.TaxRate)))

	decremented := make([]domain.CartItem, 0, len(cart))
	for _, line := range cart {
		if err := s.repo.AdjustStock(ctx, line.ProductID, -line.Qty); err != nil {
			s.restoreStock(ctx, decremented)
			return domain.CheckoutResponse{}, err
		}
		decremented = append(decremented, line)
	}

	now := time.Now().UTC()
	created, err := s.repo.CreateTransaction(ctx, domain.Transaction{
		ID:              xid.New("trx"),
		OutletID:        req.OutletID,
		CashierUsername: actor.Username,
		Items:           items,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		Total:           total,
		Timestamp:       now.UnixMilli(),
		Date:            now.Format("2/1/2006"),
	})
	if err != nil {
		s.restoreStock(ctx, decremented)
		return domain.CheckoutResponse{}, err
	}

	s.logAudit(ctx, created.OutletID, "checkout", "transaction", created.ID, fmt.Sprintf("method=%s,total=%d,items=%d", created.PaymentMethod, created.Total, len(created.Items)))
	return domain.CheckoutResponse{Transaction: *created}, nil
}

// restoreStock compensates partially applied decrements after a failed
// checkout. Failures here only get logged; the stock row was already
// validated moments ago.
func (s *Service) restoreStock(ctx context.Context, lines []domain.CartItem) {
	for _, line := range lines {
		if err := s.repo.AdjustStock(ctx, line.ProductID, line.Qty); err != nil {
			log.Printf("[service] WARN: failed to restore stock product=%s qty=%d: %v", line.ProductID, line.Qty, err)
		}
	}
}

// ListTransactions returns scope-and-period filtered history, newest first.
func (s *Service) ListTransactions(ctx context.Context, scope string, periodRaw string, limit int) ([]domain.Transaction, error) {
	period, err := report.ParsePeriod(periodRaw)
	if err != nil {
		return nil, err
	}

	outletID, _, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.ListTransactions(ctx, outletID, 0)
	if err != nil {
		return nil, err
	}
	txs = report.FilterByPeriod(txs, period, time.Now())
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// GetTransaction looks up a single receipt by its ID.
func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

// DashboardResponse carries the analytics blocks the dashboard screens plot.
// Every number is recomputed from the transaction list on request, with the
// same aggregation functions the export pipeline uses.
type DashboardResponse struct {
	Scope            string                        `json:"scope"`
	Period           string                        `json:"period"`
	PeriodLabel      string                        `json:"period_label"`
	Summary          report.SummaryStats           `json:"summary"`
	Payments         map[string]report.PaymentStat `json:"payments"`
	TopProducts      []report.ProductStat          `json:"top_products"`
	Categories       []report.CategoryStat         `json:"categories"`
	Daily            []report.DailyBucket          `json:"daily"`
	GrowthPercentage int                           `json:"growth_percentage"`
	Outlets          []report.OutletStat           `json:"outlets"`
}

func (s *Service) Dashboard(ctx context.Context, scope string, periodRaw string) (DashboardResponse, error) {
	period, err := report.ParsePeriod(periodRaw)
	if err != nil {
		return DashboardResponse{}, err
	}

	outletID, _, err := s.resolveScope(ctx, scope)
	if err != nil {
		return DashboardResponse{}, err
	}

	allTxs, err := s.repo.ListTransactions(ctx, outletID, 0)
	if err != nil {
		return DashboardResponse{}, err
	}
	products, err := s.repo.ListProducts(ctx, outletID)
	if err != nil {
		return DashboardResponse{}, err
	}
	outlets, err := s.repo.ListOutlets(ctx)
	if err != nil {
		return DashboardResponse{}, err
	}

	now := time.Now()
	txs := report.FilterByPeriod(allTxs, period, now)
	mergeNames := outletID == ""

	// Growth is always day-over-day, independent of the selected period.
	recent := report.DailyBreakdown(allTxs, 2, now)
	growth := report.GrowthPercentage(recent[1].Sales, recent[0].Sales)

	resp := DashboardResponse{
		Scope:            scopeOrAll(scope),
		Period:           string(period),
		PeriodLabel:      period.Label(),
		Summary:          report.Summarize(txs),
		Payments:         report.PaymentBreakdown(txs),
		TopProducts:      report.TopProducts(txs, 5, mergeNames, report.SortByRevenue),
		Categories:       report.CategoryPerformance(txs, products),
		Daily:            report.DailyBreakdown(txs, 7, now),
		GrowthPercentage: growth,
	}
	if outletID == "" {
		resp.Outlets = report.OutletPerformance(txs, outlets, products)
	}
	return resp, nil
}

// ExportSalesReport renders the requested artifact and parks it in the
// artifact cache under a one-time download token. A cache write failure only
// costs the re-download link, so it is logged and swallowed; render errors
// propagate unchanged.
func (s *Service) ExportSalesReport(ctx context.Context, req domain.SalesReportRequest) (domain.ReportArtifact, domain.ReportDownload, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return domain.ReportArtifact{}, domain.ReportDownload{}, err
	}

	period, err := report.ParsePeriod(req.Period)
	if err != nil {
		return domain.ReportArtifact{}, domain.ReportDownload{}, err
	}

	outletID, scopeName, err := s.resolveScope(ctx, req.Scope)
	if err != nil {
		return domain.ReportArtifact{}, domain.ReportDownload{}, err
	}

	txs, err := s.repo.ListTransactions(ctx, outletID, 0)
	if err != nil {
		return domain.ReportArtifact{}, domain.ReportDownload{}, err
	}
	products, err := s.repo.ListProducts(ctx, outletID)
	if err != nil {
		return domain.ReportArtifact{}, domain.ReportDownload{}, err
	}
	outlets, err := s.repo.ListOutlets(ctx)
	if err != nil {
		return domain.ReportArtifact{}, domain.ReportDownload{}, err
	}

	now := time.Now().UTC()
	opts := export.SalesReportOptions{
		Scope:        scopeOrAll(req.Scope),
		ScopeName:    scopeName,
		Period:       period,
		Now:          now,
		Transactions: txs,
		Outlets:      outlets,
		Products:     products,
	}

	var artifact domain.ReportArtifact
	switch strings.ToLower(strings.TrimSpace(req.Format)) {
	case "", "pdf":
		artifact, err = export.BuildSalesReport(opts)
		if err != nil {
			return domain.ReportArtifact{}, domain.ReportDownload{}, err
		}
	case "csv":
		artifact = export.BuildTransactionsCSV(opts)
	default:
		return domain.ReportArtifact{}, domain.ReportDownload{}, store.ErrInvalidInput
	}

	token := xid.New("rpt")
	expiresAt := now.Add(s.artifactTTL)
	if err := s.artifacts.Set(ctx, token, &artifact, s.artifactTTL); err != nil {
		log.Printf("[service] WARN: failed to cache report artifact token=%s: %v", token, err)
	}

	s.logAudit(ctx, outletID, "report_export", "report", artifact.FileName, fmt.Sprintf("scope=%s,period=%s,format=%s", scopeOrAll(req.Scope), period, req.Format))

	return artifact, domain.ReportDownload{
		Token:     token,
		FileName:  artifact.FileName,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) DownloadReport(ctx context.Context, token string) (*domain.ReportArtifact, error) {
	artifact, ok, err := s.artifacts.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	return artifact, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, outletID string, date string, limit int) ([]domain.AuditLog, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOwner); err != nil {
		return nil, err
	}

	var from, to time.Time
	if strings.TrimSpace(date) != "" {
		day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = day
		to = day.Add(24*time.Hour - time.Nanosecond)
	}

	return s.repo.ListAuditLogs(ctx, outletID, from, to, limit)
}

// resolveScope maps a scope value to a repository outlet filter ("" means
// all outlets) and a display name for report headers.
func (s *Service) resolveScope(ctx context.Context, scope string) (outletID string, scopeName string, err error) {
	scope = strings.TrimSpace(scope)
	if scope == "" || scope == domain.ScopeAll {
		return "", "Semua Outlet", nil
	}

	outlet, err := s.repo.GetOutletByID(ctx, scope)
	if err != nil {
		return "", "", err
	}
	return outlet.ID, outlet.Name, nil
}

func (s *Service) logAudit(ctx context.Context, outletID string, action string, entityType string, entityID string, detail string) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("aud"),
		OutletID:      outletID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func requireRole(ctx context.Context, roles ...string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return fmt.Errorf("authenticated user required")
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%s role required", strings.Join(roles, " or "))
}

func normalizeCart(items []domain.CartItem) []domain.CartItem {
	merged := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" || item.Qty < 1 {
			continue
		}
		if _, seen := merged[id]; !seen {
			order = append(order, id)
		}
		merged[id] += item.Qty
	}

	result := make([]domain.CartItem, 0, len(order))
	for _, id := range order {
		result = append(result, domain.CartItem{ProductID: id, Qty: merged[id]})
	}
	return result
}

func scopeOrAll(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return domain.ScopeAll
	}
	return scope
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentCash, domain.PaymentTransfer, domain.PaymentEwallet, domain.PaymentCard:
		return true
	default:
		return false
	}
}
