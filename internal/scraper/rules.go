package scraper

// Candidate is one DOM query expression tried, in priority order, to locate a
// field's value across markup versions. An empty Attr extracts text content.
type Candidate struct {
	Selector string
	Attr     string
}

// Rule is the ordered fallback chain of selector candidates for one field.
type Rule struct {
	Field      string
	Candidates []Candidate
}

// RuleSet groups the extraction rules for every output field. Single-value
// fields resolve first-match-wins; multi-value fields union matches across
// all candidates.
type RuleSet struct {
	Name           Rule
	Title          Rule
	Location       Rule
	Picture        Rule
	Connections    Rule
	Skills         Rule
	Certifications Rule
	Companies      Rule
	Education      Rule
}

// DefaultRules returns the built-in selector chains. Candidates are ordered
// most-current markup first, with legacy and A/B-tested variants behind them.
// These WILL break when the target site changes its markup; inspect a live
// profile page in DevTools to verify or extend the chains.
func DefaultRules() RuleSet {
	return RuleSet{
		Name: Rule{
			Field: "name",
			Candidates: []Candidate{
				{Selector: `h1.text-heading-xlarge`},
				{Selector: `.pv-text-details__left-panel h1`},
				{Selector: `.top-card-layout__title`},
				{Selector: `li.inline.t-24.t-black.t-normal`},
			},
		},
		Title: Rule{
			Field: "title",
			Candidates: []Candidate{
				{Selector: `.text-body-medium.break-words`},
				{Selector: `.pv-text-details__left-panel .text-body-medium`},
				{Selector: `.top-card-layout__headline`},
				{Selector: `h2.mt1.t-18.t-black.t-normal`},
			},
		},
		Location: Rule{
			Field: "location",
			Candidates: []Candidate{
				{Selector: `span.text-body-small.inline.t-black--light.break-words`},
				{Selector: `.pv-text-details__left-panel .text-body-small`},
				{Selector: `.top-card-layout__first-subline .top-card__subline-item`},
				{Selector: `li.t-16.t-black.t-normal.inline-block`},
			},
		},
		Picture: Rule{
			Field: "profilePictureUrl",
			Candidates: []Candidate{
				{Selector: `img.pv-top-card-profile-picture__image`, Attr: "src"},
				{Selector: `img.pv-top-card-profile-picture__image--show`, Attr: "src"},
				{Selector: `.top-card-layout__entity-image`, Attr: "src"},
				{Selector: `.profile-photo-edit__preview`, Attr: "src"},
			},
		},
		Connections: Rule{
			Field: "connections",
			Candidates: []Candidate{
				{Selector: `.pv-top-card--list-bullet li span.t-bold`},
				{Selector: `span.t-bold[aria-hidden="true"]`},
				{Selector: `.top-card__connections`},
				{Selector: `.top-card-layout__first-subline span.top-card__subline-item`},
			},
		},
		Skills: Rule{
			Field: "skills",
			Candidates: []Candidate{
				{Selector: `section.skills .pvs-entity__path span[aria-hidden="true"]`},
				{Selector: `.pv-skill-category-entity__name-text`},
				{Selector: `section[data-section="skills"] .skill-entity__name`},
			},
		},
		Certifications: Rule{
			Field: "certifications",
			Candidates: []Candidate{
				{Selector: `section#certifications .pvs-entity__path span[aria-hidden="true"]`},
				{Selector: `.pv-certifications__summary-info h3`},
				{Selector: `section[data-section="certifications"] h3`},
			},
		},
		Companies: Rule{
			Field: "companies",
			Candidates: []Candidate{
				{Selector: `section#experience .pvs-entity span.t-14.t-normal span[aria-hidden="true"]`},
				{Selector: `.pv-entity__secondary-title`},
				{Selector: `.experience-item__subtitle`},
			},
		},
		Education: Rule{
			Field: "education",
			Candidates: []Candidate{
				{Selector: `section#education .pvs-entity span.t-bold span[aria-hidden="true"]`},
				{Selector: `.pv-entity__school-name`},
				{Selector: `.education__item h3`},
			},
		},
	}
}
