package domain

// RiskTolerance is the persona's appetite for risk as judged by the backend.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "Low"
	RiskMedium RiskTolerance = "Medium"
	RiskHigh   RiskTolerance = "High"
)

// SubmitRequest is the payload POSTed to the analysis backend.
type SubmitRequest struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	ProjectInfo  ProjectInfo  `json:"projectInfo"`
}

// PersonalInfo describes the founder.
type PersonalInfo struct {
	Name                   string `json:"name"`
	Gender                 string `json:"gender"`
	Age                    int    `json:"age"`
	MBTI                   string `json:"mbti"`
	PreviousJob            string `json:"previous_job"`
	SelfEmployedExperience bool   `json:"self_employed_experience"`
}

// ProjectInfo describes the planned business.
type ProjectInfo struct {
	FoodSector string `json:"foodSector"`
	Region     string `json:"region"`
	Capital    int64  `json:"capital"`
}

// Report is the analysis document returned by the backend.
// Roadmaps[i] and RecommendedItems[i] describe the same business concept.
type Report struct {
	ExecutiveSummary   string            `json:"executive_summary"`
	PersonaProfile     PersonaProfile    `json:"persona_profile"`
	MarketAnalysisList []MarketAnalysis  `json:"market_analysis_list"`
	RecommendedItems   []RecommendedItem `json:"recommended_items"`
	Roadmaps           []Roadmap         `json:"roadmaps"`
}

// PersonaProfile summarizes the founder as a persona.
type PersonaProfile struct {
	PersonaSummary        string        `json:"persona_summary"`
	RecommendedStyle      []string      `json:"recommended_style"`
	RiskTolerance         RiskTolerance `json:"risk_tolerance"`
	Strengths             []string      `json:"strengths"`
	Weaknesses            []string      `json:"weaknesses"`
	SuitableBusinessTypes []string      `json:"suitable_business_types"`
}

// MarketAnalysis covers one neighbourhood (dong).
type MarketAnalysis struct {
	Dong                string   `json:"dong"`
	Demographics        string   `json:"demographics"`
	AvgRent             string   `json:"avg_rent"`
	FootTraffic         string   `json:"foot_traffic"`
	EmergingTrends      []string `json:"emerging_trends"`
	MarketOpportunities []string `json:"market_opportunities"`
}

// LocationStrategy is the placement advice for a recommended item.
type LocationStrategy struct {
	RecommendedAreas   []string `json:"recommended_areas"`
	LocationCriteria   []string `json:"location_criteria"`
	AccessibilityNotes string   `json:"accessibility_notes"`
}

// RecommendedItem is one candidate business concept with its scores (0-100).
type RecommendedItem struct {
	Item               string           `json:"item"`
	Concept            string           `json:"concept"`
	Reason             string           `json:"reason"`
	LocationStrategy   LocationStrategy `json:"location_strategy"`
	MarketFitScore     float64          `json:"market_fit_score"`
	PersonaFitScore    float64          `json:"persona_fit_score"`
	ProfitabilityScore float64          `json:"profitability_score"`
}

// SpacePlanning covers interior and signage.
type SpacePlanning struct {
	InteriorConcept string   `json:"interior_concept"`
	SignageIdeas    []string `json:"signage_ideas"`
	EstimatedSpace  string   `json:"estimated_space"`
}

// OperationPreparation covers suppliers, equipment and staff.
type OperationPreparation struct {
	Suppliers      []string `json:"suppliers"`
	EquipmentList  []string `json:"equipment_list"`
	PackagingIdeas []string `json:"packaging_ideas"`
	StaffingPlan   string   `json:"staffing_plan"`
}

// PolicyFund is a public funding program.
type PolicyFund struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// FinancialPlan covers investment and funding.
type FinancialPlan struct {
	InitialInvestment int64        `json:"initial_investment"`
	MonthlyFixedCosts int64        `json:"monthly_fixed_costs"`
	BreakEvenPoint    string       `json:"break_even_point"`
	FundingSources    []string     `json:"funding_sources"`
	PolicyFunds       []PolicyFund `json:"policy_funds"`
}

// AdministrativeTasks covers licenses and registrations.
type AdministrativeTasks struct {
	RequiredLicenses  []string `json:"required_licenses"`
	RegistrationSteps []string `json:"registration_steps"`
	RequiredEducation []string `json:"required_education"`
	EstimatedTimeline string   `json:"estimated_timeline"`
}

// SignatureMenuItem is a proposed signature dish; Price is in won.
type SignatureMenuItem struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

// MenuDevelopment covers the menu plan.
type MenuDevelopment struct {
	SignatureMenu   []SignatureMenuItem `json:"signature_menu"`
	PricingStrategy string              `json:"pricing_strategy"`
	MenuDiversity   string              `json:"menu_diversity"`
	SeasonalItems   []string            `json:"seasonal_items"`
}

// Roadmap is the operational plan for one recommended item.
type Roadmap struct {
	Item                string               `json:"item"`
	SpacePlanning       SpacePlanning        `json:"space_planning"`
	OperationPrep       OperationPreparation `json:"operation_prep"`
	FinancialPlan       FinancialPlan        `json:"financial_plan"`
	AdministrativeTasks AdministrativeTasks  `json:"administrative_tasks"`
	MenuDevelopment     MenuDevelopment      `json:"menu_development"`
}
