package planner

import (
	"sort"

	"smartharvester/internal/models"
)

// CropKnowledgeBase is the read-only mapping from canonical crop name to
// its care schedule and harvest window. Lookups have no side effects; the
// only failure mode is a miss.
type CropKnowledgeBase struct {
	profiles map[string]models.CropProfile
	names    []string
}

// NewCropKnowledgeBase builds the knowledge base from the built-in crop
// library.
func NewCropKnowledgeBase() *CropKnowledgeBase {
	profiles := builtinCropLibrary()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return &CropKnowledgeBase{profiles: profiles, names: names}
}

// Profile returns the profile for a canonical crop name.
func (kb *CropKnowledgeBase) Profile(name string) (models.CropProfile, bool) {
	p, ok := kb.profiles[name]
	return p, ok
}

// Names returns all canonical crop names in sorted order, which keeps
// fuzzy matching deterministic.
func (kb *CropKnowledgeBase) Names() []string {
	return kb.names
}

func builtinCropLibrary() map[string]models.CropProfile {
	library := []models.CropProfile{
		{
			Name:        "Basil",
			Description: "Quick-growing herb for warm weather, prefers full sun and consistent moisture.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Start seeds indoors", DayOffset: 0},
				{Title: "Thin seedlings", DayOffset: 14},
				{Title: "Transplant outdoors", DayOffset: 28},
				{Title: "Regular harvest (pinch tips)", DayOffset: 42},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 42, EndOffset: 120},
		},
		{
			Name:        "Bell Peppers",
			Description: "Warm-season crop; needs long, warm season and consistent moisture.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Sow seeds indoors", DayOffset: 0},
				{Title: "Pot on seedlings", DayOffset: 21},
				{Title: "Harden off seedlings", DayOffset: 49},
				{Title: "Transplant outdoors", DayOffset: 56},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 80, EndOffset: 120},
		},
		{
			Name:        "Carrots",
			Description: "Root crop; sow directly; thin seedlings.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Sow seeds directly", DayOffset: 0},
				{Title: "First thinning", DayOffset: 14},
				{Title: "Second thinning", DayOffset: 28},
				{Title: "Weed and mulch", DayOffset: 21},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 60, EndOffset: 90},
		},
		{
			Name:        "Cucumbers",
			Description: "Fast vining plant; trellis for space; warm-season crop.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Sow or transplant seedlings", DayOffset: 0},
				{Title: "Install trellis", DayOffset: 7},
				{Title: "First trellis training", DayOffset: 14},
				{Title: "Begin harvesting", DayOffset: 50},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 50, EndOffset: 100},
		},
		{
			Name:        "Lettuce",
			Description: "Cool-season leafy green; quick turnover; may be grown in succession.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Sow seeds", DayOffset: 0},
				{Title: "Thin seedlings", DayOffset: 10},
				{Title: "Begin baby-leaf harvest", DayOffset: 21},
				{Title: "Full head harvest", DayOffset: 45},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 21, EndOffset: 60},
		},
		{
			Name:        "Mint",
			Description: "Perennial herb; spreads vigorously; best grown in containers.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Pot or transplant", DayOffset: 0},
				{Title: "Pinch back regularly", DayOffset: 14},
				{Title: "Divide in spring", DayOffset: 365},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 21, EndOffset: 9999},
		},
		{
			Name:        "Potatoes",
			Description: "Tuber crop; plant seed potatoes; hill for more yield.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Plant seed pieces", DayOffset: 0},
				{Title: "First hill", DayOffset: 21},
				{Title: "Second hill", DayOffset: 42},
				{Title: "Begin new potato harvest", DayOffset: 70},
				{Title: "Main harvest", DayOffset: 100},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 70, EndOffset: 120},
		},
		{
			Name:        "Radishes",
			Description: "Very fast-growing root crop; great for succession planting.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Sow seeds directly", DayOffset: 0},
				{Title: "Thin seedlings", DayOffset: 7},
				{Title: "Harvest early", DayOffset: 21},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 21, EndOffset: 35},
		},
		{
			Name:        "Rosemary",
			Description: "Woody perennial herb; drought tolerant; prefers well-drained soil.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Transplant or pot", DayOffset: 0},
				{Title: "Light pruning", DayOffset: 60},
				{Title: "Annual pruning", DayOffset: 365},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 60, EndOffset: 9999},
		},
		{
			Name:        "Spinach",
			Description: "Cool-season leafy green; bolt-prone in hot weather.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Sow seeds directly", DayOffset: 0},
				{Title: "Thin seedlings", DayOffset: 14},
				{Title: "Baby leaf harvest", DayOffset: 28},
				{Title: "Full harvest", DayOffset: 45},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 28, EndOffset: 60},
		},
		{
			Name:        "Tomatoes",
			Description: "Warm-season vine; stake or cage; heavy feeder.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Start seeds indoors", DayOffset: 0},
				{Title: "Pot on seedlings", DayOffset: 21},
				{Title: "Harden off", DayOffset: 49},
				{Title: "Transplant & stake", DayOffset: 56},
				{Title: "First fruit set care", DayOffset: 70},
				{Title: "Begin harvesting", DayOffset: 90},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 90, EndOffset: 140},
		},
		{
			Name:        "Zucchini",
			Description: "Productive summer squash; harvest frequently to encourage yield.",
			CareSchedule: []models.CareTaskTemplate{
				{Title: "Direct sow or transplant", DayOffset: 0},
				{Title: "First flower thinning", DayOffset: 35},
				{Title: "Begin frequent harvest", DayOffset: 45},
			},
			HarvestWindow: models.HarvestWindow{StartOffset: 45, EndOffset: 90},
		},
	}

	profiles := make(map[string]models.CropProfile, len(library))
	for _, p := range library {
		profiles[p.Name] = p
	}
	return profiles
}
