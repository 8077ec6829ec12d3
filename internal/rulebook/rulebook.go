// Package rulebook is the configuration store of the tracker: categories with
// their registered store names and keywords, the default category, the
// auto-categorization toggle, per-category budgets and the alert thresholds.
// It is loaded from a TOML file, validated once, and handed to the core as an
// immutable snapshot; every mutation persists the file atomically.
package rulebook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"tally/internal/core"
)

var (
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBudgetNotFound   = errors.New("no budget configured for category")
)

// Rulebook holds the parsed configuration. Safe for concurrent use; readers
// get copies, never internal slices.
type Rulebook struct {
	mu         sync.RWMutex
	path       string
	categories []core.CategoryRule
	defaultCat string
	autoCat    bool
	budgets    map[string]core.Budget
	thresholds core.Thresholds
}

type (
	fileFormat struct {
		Settings   settingsSection   `toml:"settings"`
		Alerts     alertsSection     `toml:"alerts"`
		Categories []categorySection `toml:"categories"`
		Budgets    []budgetSection   `toml:"budgets"`
	}

	settingsSection struct {
		DefaultCategory string `toml:"default_category"`
		AutoCategorize  bool   `toml:"auto_categorize"`
	}

	alertsSection struct {
		WarningThreshold int `toml:"warning_threshold"`
		AlertThreshold   int `toml:"alert_threshold"`
	}

	categorySection struct {
		Name     string   `toml:"name"`
		Stores   []string `toml:"stores"`
		Keywords []string `toml:"keywords"`
	}

	budgetSection struct {
		Category string `toml:"category"`
		Amount   string `toml:"amount"`
		Period   string `toml:"period"`
		Active   bool   `toml:"active"`
	}
)

// Load reads the rulebook file. A missing file yields the built-in default
// configuration (it is written on the first mutation).
func Load(path string) (*Rulebook, error) {
	rb := &Rulebook{path: path, budgets: make(map[string]core.Budget)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		rb.applyDefaults()
		return rb, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rulebook %s: %w", path, err)
	}

	var f fileFormat
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rulebook %s: %w", path, err)
	}
	if err := rb.applyFile(f); err != nil {
		return nil, fmt.Errorf("invalid rulebook %s: %w", path, err)
	}
	return rb, nil
}

func (rb *Rulebook) applyFile(f fileFormat) error {
	seen := make(map[string]bool)
	cats := make([]core.CategoryRule, 0, len(f.Categories))
	for _, c := range f.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return errors.New("category with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate category %q", name)
		}
		seen[name] = true
		cats = append(cats, core.CategoryRule{
			Name:     name,
			Stores:   cleanList(c.Stores),
			Keywords: lowerList(c.Keywords),
		})
	}

	defaultCat := strings.TrimSpace(f.Settings.DefaultCategory)
	if defaultCat == "" {
		return errors.New("missing default category")
	}
	if !seen[defaultCat] {
		return fmt.Errorf("default category %q is not a configured category", defaultCat)
	}

	th := core.Thresholds{Warning: f.Alerts.WarningThreshold, Alert: f.Alerts.AlertThreshold}
	if th == (core.Thresholds{}) {
		th = core.DefaultThresholds
	}
	if err := th.Validate(); err != nil {
		return err
	}

	budgets := make(map[string]core.Budget, len(f.Budgets))
	for _, b := range f.Budgets {
		if !seen[b.Category] {
			return fmt.Errorf("budget references unknown category %q", b.Category)
		}
		amount, err := core.ParseAmount(b.Amount)
		if err != nil {
			return fmt.Errorf("budget for %q: %w", b.Category, err)
		}
		budget := core.Budget{
			Category: b.Category,
			Amount:   amount,
			Period:   core.PeriodKind(b.Period),
			Active:   b.Active,
		}
		if err := budget.Validate(); err != nil {
			return fmt.Errorf("budget for %q: %w", b.Category, err)
		}
		if _, dup := budgets[b.Category]; dup {
			return fmt.Errorf("duplicate budget for category %q", b.Category)
		}
		budgets[b.Category] = budget
	}

	rb.categories = cats
	rb.defaultCat = defaultCat
	rb.autoCat = f.Settings.AutoCategorize
	rb.thresholds = th
	rb.budgets = budgets
	return nil
}

// Save writes the rulebook to its file via a temp file and rename.
func (rb *Rulebook) Save() error {
	rb.mu.RLock()
	f := rb.toFile()
	path := rb.path
	rb.mu.RUnlock()
	return writeFile(path, f)
}

func (rb *Rulebook) toFile() fileFormat {
	f := fileFormat{
		Settings: settingsSection{DefaultCategory: rb.defaultCat, AutoCategorize: rb.autoCat},
		Alerts:   alertsSection{WarningThreshold: rb.thresholds.Warning, AlertThreshold: rb.thresholds.Alert},
	}
	for _, c := range rb.categories {
		f.Categories = append(f.Categories, categorySection{
			Name:     c.Name,
			Stores:   append([]string(nil), c.Stores...),
			Keywords: append([]string(nil), c.Keywords...),
		})
	}
	names := make([]string, 0, len(rb.budgets))
	for name := range rb.budgets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := rb.budgets[name]
		f.Budgets = append(f.Budgets, budgetSection{
			Category: b.Category,
			Amount:   b.Amount.String(),
			Period:   string(b.Period),
			Active:   b.Active,
		})
	}
	return f
}

func writeFile(path string, f fileFormat) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal rulebook: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create rulebook directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".rulebook-*.toml")
	if err != nil {
		return fmt.Errorf("create temp rulebook: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write rulebook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close rulebook: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace rulebook: %w", err)
	}
	return nil
}

// Snapshot returns an immutable copy of the classification configuration.
func (rb *Rulebook) Snapshot() core.Ruleset {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	cats := make([]core.CategoryRule, len(rb.categories))
	for i, c := range rb.categories {
		cats[i] = core.CategoryRule{
			Name:     c.Name,
			Stores:   append([]string(nil), c.Stores...),
			Keywords: append([]string(nil), c.Keywords...),
		}
	}
	return core.Ruleset{
		Categories:      cats,
		DefaultCategory: rb.defaultCat,
		AutoCategorize:  rb.autoCat,
	}
}

// Categories returns category names in configured order.
func (rb *Rulebook) Categories() []string {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	names := make([]string, len(rb.categories))
	for i, c := range rb.categories {
		names[i] = c.Name
	}
	return names
}

// StoresFor returns the store list of a category.
func (rb *Rulebook) StoresFor(category string) ([]string, error) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	c := rb.find(category)
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	return append([]string(nil), c.Stores...), nil
}

// KeywordsFor returns the keyword list of a category.
func (rb *Rulebook) KeywordsFor(category string) ([]string, error) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	c := rb.find(category)
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	return append([]string(nil), c.Keywords...), nil
}

// DefaultCategory returns the fallback category for unmatched store names.
func (rb *Rulebook) DefaultCategory() string {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.defaultCat
}

// AutoCategorize reports whether automatic classification is enabled.
func (rb *Rulebook) AutoCategorize() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.autoCat
}

// UpdateSettings changes the default category and/or the toggle. The default
// must be an existing category.
func (rb *Rulebook) UpdateSettings(defaultCategory string, autoCategorize bool) error {
	rb.mu.Lock()
	defaultCategory = strings.TrimSpace(defaultCategory)
	if rb.find(defaultCategory) == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	rb.defaultCat = defaultCategory
	rb.autoCat = autoCategorize
	rb.mu.Unlock()
	return rb.Save()
}

func (rb *Rulebook) find(category string) *core.CategoryRule {
	for i := range rb.categories {
		if rb.categories[i].Name == category {
			return &rb.categories[i]
		}
	}
	return nil
}

// AddCategory appends a new empty category.
func (rb *Rulebook) AddCategory(name string) error {
	rb.mu.Lock()
	name = strings.TrimSpace(name)
	if name == "" {
		rb.mu.Unlock()
		return errors.New("category name cannot be empty")
	}
	if rb.find(name) != nil {
		rb.mu.Unlock()
		return ErrCategoryExists
	}
	rb.categories = append(rb.categories, core.CategoryRule{Name: name})
	rb.mu.Unlock()
	return rb.Save()
}

// RemoveCategory deletes a category. Its budget, if any, is cascade-deleted
// so no budget is ever left referencing a missing category. The default
// category cannot be removed.
func (rb *Rulebook) RemoveCategory(name string) error {
	rb.mu.Lock()
	if rb.find(name) == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	if name == rb.defaultCat {
		rb.mu.Unlock()
		return fmt.Errorf("cannot remove the default category %q", name)
	}
	out := rb.categories[:0]
	for _, c := range rb.categories {
		if c.Name != name {
			out = append(out, c)
		}
	}
	rb.categories = out
	delete(rb.budgets, name)
	rb.mu.Unlock()
	return rb.Save()
}

// RenameCategory renames a category in place, carrying its budget and, when
// it was the default, the default category along.
func (rb *Rulebook) RenameCategory(oldName, newName string) error {
	rb.mu.Lock()
	newName = strings.TrimSpace(newName)
	if newName == "" {
		rb.mu.Unlock()
		return errors.New("category name cannot be empty")
	}
	c := rb.find(oldName)
	if c == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	if rb.find(newName) != nil {
		rb.mu.Unlock()
		return ErrCategoryExists
	}
	c.Name = newName
	if b, ok := rb.budgets[oldName]; ok {
		delete(rb.budgets, oldName)
		b.Category = newName
		rb.budgets[newName] = b
	}
	if rb.defaultCat == oldName {
		rb.defaultCat = newName
	}
	rb.mu.Unlock()
	return rb.Save()
}

// AddStore registers a store name under a category. Adding an
// already-registered name is a no-op, compared case-insensitively; store
// lists stay sorted as in the original tracker.
func (rb *Rulebook) AddStore(category, store string) error {
	rb.mu.Lock()
	store = strings.TrimSpace(store)
	if store == "" {
		rb.mu.Unlock()
		return core.ErrEmptyStore
	}
	c := rb.find(category)
	if c == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	for _, s := range c.Stores {
		if strings.EqualFold(s, store) {
			rb.mu.Unlock()
			return nil
		}
	}
	c.Stores = append(c.Stores, store)
	sort.Strings(c.Stores)
	rb.mu.Unlock()
	return rb.Save()
}

// RemoveStore drops a store name from a category, case-insensitively.
func (rb *Rulebook) RemoveStore(category, store string) error {
	rb.mu.Lock()
	c := rb.find(category)
	if c == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	out := c.Stores[:0]
	for _, s := range c.Stores {
		if !strings.EqualFold(s, store) {
			out = append(out, s)
		}
	}
	c.Stores = out
	rb.mu.Unlock()
	return rb.Save()
}

// AddKeyword registers a matching keyword, stored lowercase and deduplicated
// case-insensitively.
func (rb *Rulebook) AddKeyword(category, keyword string) error {
	rb.mu.Lock()
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		rb.mu.Unlock()
		return errors.New("keyword cannot be empty")
	}
	c := rb.find(category)
	if c == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	for _, k := range c.Keywords {
		if k == keyword {
			rb.mu.Unlock()
			return nil
		}
	}
	c.Keywords = append(c.Keywords, keyword)
	sort.Strings(c.Keywords)
	rb.mu.Unlock()
	return rb.Save()
}

// RemoveKeyword drops a keyword from a category, case-insensitively.
func (rb *Rulebook) RemoveKeyword(category, keyword string) error {
	rb.mu.Lock()
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	c := rb.find(category)
	if c == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	out := c.Keywords[:0]
	for _, k := range c.Keywords {
		if k != keyword {
			out = append(out, k)
		}
	}
	c.Keywords = out
	rb.mu.Unlock()
	return rb.Save()
}

// Apply executes the classifier's follow-up registration command.
func (rb *Rulebook) Apply(cmd core.RegisterStore) error {
	return rb.AddStore(cmd.Category, cmd.Store)
}

// Budget returns the budget configured for a category, if any.
func (rb *Rulebook) Budget(category string) (core.Budget, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	b, ok := rb.budgets[category]
	return b, ok
}

// Budgets returns all configured budgets keyed by category.
func (rb *Rulebook) Budgets() map[string]core.Budget {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	out := make(map[string]core.Budget, len(rb.budgets))
	for k, v := range rb.budgets {
		out[k] = v
	}
	return out
}

// SetBudget upserts the budget for its category. The category must exist and
// the amount must be positive; invalid budgets are rejected before any state
// changes.
func (rb *Rulebook) SetBudget(b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	rb.mu.Lock()
	if rb.find(b.Category) == nil {
		rb.mu.Unlock()
		return ErrCategoryNotFound
	}
	rb.budgets[b.Category] = b
	rb.mu.Unlock()
	return rb.Save()
}

// DeleteBudget removes the budget for a category.
func (rb *Rulebook) DeleteBudget(category string) error {
	rb.mu.Lock()
	if _, ok := rb.budgets[category]; !ok {
		rb.mu.Unlock()
		return ErrBudgetNotFound
	}
	delete(rb.budgets, category)
	rb.mu.Unlock()
	return rb.Save()
}

// Thresholds returns the alert thresholds.
func (rb *Rulebook) Thresholds() core.Thresholds {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.thresholds
}

// SetThresholds replaces the alert thresholds.
func (rb *Rulebook) SetThresholds(th core.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	rb.mu.Lock()
	rb.thresholds = th
	rb.mu.Unlock()
	return rb.Save()
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func lowerList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool)
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
