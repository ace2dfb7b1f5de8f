package wizard

import (
	"fmt"
	"math"

	"github.com/ashureev/startup-navigator/internal/domain"
)

// Category groups roadmap checklist items.
type Category string

const (
	CategoryAdmin     Category = "admin"
	CategoryFunding   Category = "funding"
	CategoryLocation  Category = "location"
	CategoryMenu      Category = "menu"
	CategoryOperation Category = "operation"
)

// Categories lists the checklist categories in display order.
var Categories = []Category{CategoryAdmin, CategoryFunding, CategoryLocation, CategoryMenu, CategoryOperation}

var categoryTitles = map[Category]string{
	CategoryAdmin:     "행정 및 인허가",
	CategoryFunding:   "자금 계획",
	CategoryLocation:  "입지 선정",
	CategoryMenu:      "메뉴 개발",
	CategoryOperation: "운영 준비",
}

// Title returns the display title of the category.
func (c Category) Title() string {
	return categoryTitles[c]
}

// ChecklistGroup is one category's items for a roadmap.
type ChecklistGroup struct {
	Category Category               `json:"category"`
	Title    string                 `json:"title"`
	Items    []domain.ChecklistItem `json:"items"`
	Progress int                    `json:"progress"`
}

// RoadmapView is everything the roadmap screen renders for one recommended item.
type RoadmapView struct {
	Index           int                     `json:"index"`
	Item            string                  `json:"item"`
	Recommendation  *domain.RecommendedItem `json:"recommendation,omitempty"`
	Groups          []ChecklistGroup        `json:"groups"`
	OverallProgress int                     `json:"overallProgress"`
	NextItem        *domain.ChecklistItem   `json:"nextItem,omitempty"`
}

// DeriveChecklists builds the categorized checklist for report.Roadmaps[index].
// Items are derived, never stored; ids are stable for a given report.
func DeriveChecklists(report *domain.Report, index int) ([]ChecklistGroup, error) {
	if report == nil || index < 0 || index >= len(report.Roadmaps) {
		return nil, ErrRoadmapIndex
	}
	rm := report.Roadmaps[index]
	var rec *domain.RecommendedItem
	if index < len(report.RecommendedItems) {
		rec = &report.RecommendedItems[index]
	}

	b := map[Category]*itemBuilder{}
	for _, c := range Categories {
		b[c] = &itemBuilder{category: c}
	}

	admin := b[CategoryAdmin]
	admin.strings(rm.AdministrativeTasks.RequiredLicenses, "required_licenses")
	admin.strings(rm.AdministrativeTasks.RegistrationSteps, "registration_steps")
	admin.strings(rm.AdministrativeTasks.RequiredEducation, "required_education")

	funding := b[CategoryFunding]
	funding.strings(rm.FinancialPlan.FundingSources, "funding_sources")
	for _, pf := range rm.FinancialPlan.PolicyFunds {
		funding.add(pf.Name, &domain.ChecklistDetails{Source: "policy_funds", Description: pf.Details})
	}

	if rec != nil {
		location := b[CategoryLocation]
		location.strings(rec.LocationStrategy.RecommendedAreas, "recommended_areas")
		location.strings(rec.LocationStrategy.LocationCriteria, "location_criteria")
	}

	menu := b[CategoryMenu]
	for _, m := range rm.MenuDevelopment.SignatureMenu {
		price := m.Price
		menu.add(m.Name, &domain.ChecklistDetails{Source: "signature_menu", Description: m.Description, Price: &price})
	}
	menu.strings(rm.MenuDevelopment.SeasonalItems, "seasonal_items")
	menu.text(rm.MenuDevelopment.PricingStrategy, "pricing_strategy")
	menu.text(rm.MenuDevelopment.MenuDiversity, "menu_diversity")

	op := b[CategoryOperation]
	op.strings(rm.OperationPrep.Suppliers, "suppliers")
	op.strings(rm.OperationPrep.EquipmentList, "equipment_list")
	op.strings(rm.OperationPrep.PackagingIdeas, "packaging_ideas")
	op.text(rm.OperationPrep.StaffingPlan, "staffing_plan")
	op.strings(rm.SpacePlanning.SignageIdeas, "signage_ideas")
	op.text(rm.SpacePlanning.InteriorConcept, "interior_concept")

	groups := make([]ChecklistGroup, 0, len(Categories))
	for _, c := range Categories {
		items := b[c].items
		if items == nil {
			items = []domain.ChecklistItem{}
		}
		groups = append(groups, ChecklistGroup{Category: c, Title: c.Title(), Items: items})
	}
	return groups, nil
}

// ApplyCompletion marks items completed from the map and recomputes progress.
func ApplyCompletion(groups []ChecklistGroup, completion domain.CompletionMap) {
	for gi := range groups {
		g := &groups[gi]
		for i := range g.Items {
			g.Items[i].Completed = completion[g.Items[i].ID]
		}
		g.Progress = Progress(g.Items)
	}
}

// Progress is the rounded percentage of completed items; 0 for an empty list.
func Progress(items []domain.ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(items))))
}

// OverallProgress is Progress over the union of all groups.
func OverallProgress(groups []ChecklistGroup) int {
	var all []domain.ChecklistItem
	for _, g := range groups {
		all = append(all, g.Items...)
	}
	return Progress(all)
}

// NextItem returns the first incomplete item in category order, or nil when all are done.
func NextItem(groups []ChecklistGroup) *domain.ChecklistItem {
	for _, g := range groups {
		for i := range g.Items {
			if !g.Items[i].Completed {
				it := g.Items[i]
				return &it
			}
		}
	}
	return nil
}

// HasItem reports whether id names an item of the given groups.
func HasItem(groups []ChecklistGroup, id string) bool {
	for _, g := range groups {
		for _, it := range g.Items {
			if it.ID == id {
				return true
			}
		}
	}
	return false
}

// BuildRoadmapView derives the checklist of one roadmap and overlays completion.
func BuildRoadmapView(report *domain.Report, index int, completion domain.CompletionMap) (*RoadmapView, error) {
	groups, err := DeriveChecklists(report, index)
	if err != nil {
		return nil, err
	}
	ApplyCompletion(groups, completion)

	view := &RoadmapView{
		Index:           index,
		Item:            report.Roadmaps[index].Item,
		Groups:          groups,
		OverallProgress: OverallProgress(groups),
		NextItem:        NextItem(groups),
	}
	if index < len(report.RecommendedItems) {
		rec := report.RecommendedItems[index]
		view.Recommendation = &rec
	}
	return view, nil
}

type itemBuilder struct {
	category Category
	items    []domain.ChecklistItem
}

func (b *itemBuilder) add(title string, details *domain.ChecklistDetails) {
	b.items = append(b.items, domain.ChecklistItem{
		ID:      fmt.Sprintf("%s-%d", b.category, len(b.items)+1),
		Title:   title,
		Details: details,
	})
}

func (b *itemBuilder) strings(values []string, source string) {
	for _, v := range values {
		b.add(v, &domain.ChecklistDetails{Source: source})
	}
}

func (b *itemBuilder) text(v, source string) {
	if v == "" {
		return
	}
	b.add(v, &domain.ChecklistDetails{Source: source})
}
