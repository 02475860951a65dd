package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

// Industry is an immutable reference entity identified by Code
type Industry struct {
	Code   types.IndustryCode `json:"code"`
	Name   string             `json:"name"`
	Sector string             `json:"sector"`
}

// Topic is an assessable disclosure topic belonging to exactly one industry
type Topic struct {
	ID                types.TopicID      `json:"id"`
	IndustryCode      types.IndustryCode `json:"industryCode"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	AssociatedMetrics []string           `json:"associatedMetrics"`
}

// Catalog is the read-only set of industries and topics available for assessment
type Catalog struct {
	industries []Industry
	topics     []Topic
	industryBy map[types.IndustryCode]int
	topicBy    map[types.TopicID]int
}

// NewCatalog validates the reference data and builds a Catalog
func NewCatalog(industries []Industry, topics []Topic) (*Catalog, error) {
	c := &Catalog{
		industries: slices.Clone(industries),
		topics:     make([]Topic, 0, len(topics)),
		industryBy: make(map[types.IndustryCode]int, len(industries)),
		topicBy:    make(map[types.TopicID]int, len(topics)),
	}

	for i, ind := range industries {
		if err := ind.Code.Validate(); err != nil {
			return nil, goerr.Wrap(ErrInvalidCatalog, "invalid industry code", goerr.V(IndustryCodeKey, ind.Code), goerr.V("reason", err.Error()))
		}
		if ind.Name == "" {
			return nil, goerr.Wrap(ErrInvalidCatalog, "industry name is required", goerr.V(IndustryCodeKey, ind.Code))
		}
		if _, dup := c.industryBy[ind.Code]; dup {
			return nil, goerr.Wrap(ErrInvalidCatalog, "duplicate industry code", goerr.V(IndustryCodeKey, ind.Code))
		}
		c.industryBy[ind.Code] = i
	}

	for _, topic := range topics {
		if err := topic.ID.Validate(); err != nil {
			return nil, goerr.Wrap(ErrInvalidCatalog, "invalid topic ID", goerr.V(TopicIDKey, topic.ID), goerr.V("reason", err.Error()))
		}
		if topic.Name == "" {
			return nil, goerr.Wrap(ErrInvalidCatalog, "topic name is required", goerr.V(TopicIDKey, topic.ID))
		}
		if _, ok := c.industryBy[topic.IndustryCode]; !ok {
			return nil, goerr.Wrap(ErrInvalidCatalog, "topic references unknown industry",
				goerr.V(TopicIDKey, topic.ID), goerr.V(IndustryCodeKey, topic.IndustryCode))
		}
		if _, dup := c.topicBy[topic.ID]; dup {
			return nil, goerr.Wrap(ErrInvalidCatalog, "duplicate topic ID", goerr.V(TopicIDKey, topic.ID))
		}
		topic.AssociatedMetrics = slices.Clone(topic.AssociatedMetrics)
		c.topicBy[topic.ID] = len(c.topics)
		c.topics = append(c.topics, topic)
	}

	return c, nil
}

// Industries returns all industries in catalog order
func (c *Catalog) Industries() []Industry {
	return slices.Clone(c.industries)
}

// Topics returns all topics in catalog order
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	for i, t := range c.topics {
		out[i] = t.clone()
	}
	return out
}

// Industry looks up an industry by code
func (c *Catalog) Industry(code types.IndustryCode) (Industry, bool) {
	i, ok := c.industryBy[code]
	if !ok {
		return Industry{}, false
	}
	return c.industries[i], true
}

// Topic looks up a topic by ID
func (c *Catalog) Topic(id types.TopicID) (Topic, bool) {
	i, ok := c.topicBy[id]
	if !ok {
		return Topic{}, false
	}
	return c.topics[i].clone(), true
}

// Scope returns the topics belonging to the selected industries in catalog order.
// Each topic appears once even if its industry is selected more than once.
func (c *Catalog) Scope(codes ...types.IndustryCode) []Topic {
	selected := make(map[types.IndustryCode]struct{}, len(codes))
	for _, code := range codes {
		if code != "" {
			selected[code] = struct{}{}
		}
	}

	var scope []Topic
	for _, t := range c.topics {
		if _, ok := selected[t.IndustryCode]; ok {
			scope = append(scope, t.clone())
		}
	}
	return scope
}

func (t Topic) clone() Topic {
	t.AssociatedMetrics = slices.Clone(t.AssociatedMetrics)
	return t
}

// DefaultIndustries returns the built-in industry reference list
func DefaultIndustries() []Industry {
	return []Industry{
		{Code: "TC-SI", Name: "Software & IT Services", Sector: "Technology & Communications"},
		{Code: "TC-HW", Name: "Hardware", Sector: "Technology & Communications"},
		{Code: "CG-MR", Name: "Multiline Retail", Sector: "Consumer Goods"},
		{Code: "CG-AA", Name: "Apparel, Accessories & Footwear", Sector: "Consumer Goods"},
		{Code: "EM-EP", Name: "Exploration & Production", Sector: "Extractives & Minerals Processing"},
		{Code: "FB-RN", Name: "Restaurants", Sector: "Food & Beverage"},
		{Code: "TR-MT", Name: "Marine Transportation", Sector: "Transportation"},
		{Code: "FN-CB", Name: "Commercial Banks", Sector: "Financials"},
	}
}

// DefaultTopics returns the built-in topic reference list
func DefaultTopics() []Topic {
	return []Topic{
		{
			ID:                "TC-SI-001",
			IndustryCode:      "TC-SI",
			Name:              "Environmental Footprint of Hardware Infrastructure",
			Description:       "Energy and water usage of data centers.",
			AssociatedMetrics: []string{"TC-SI-130a.1", "TC-SI-130a.2", "TC-SI-130a.3"},
		},
		{
			ID:                "TC-SI-002",
			IndustryCode:      "TC-SI",
			Name:              "Data Privacy & Freedom of Expression",
			Description:       "Management of risks related to collection and use of user data.",
			AssociatedMetrics: []string{"TC-SI-220a.1", "TC-SI-220a.2", "TC-SI-220a.3"},
		},
		{
			ID:                "TC-SI-003",
			IndustryCode:      "TC-SI",
			Name:              "Data Security",
			Description:       "Identifying and addressing security threats.",
			AssociatedMetrics: []string{"TC-SI-230a.1", "TC-SI-230a.2"},
		},
		{
			ID:                "CG-AA-001",
			IndustryCode:      "CG-AA",
			Name:              "Management of Chemicals in Products",
			Description:       "Use of restricted substances in manufacturing.",
			AssociatedMetrics: []string{"CG-AA-250a.1", "CG-AA-250a.2"},
		},
		{
			ID:                "CG-AA-002",
			IndustryCode:      "CG-AA",
			Name:              "Labor Conditions in the Supply Chain",
			Description:       "Human rights and fair labor practices.",
			AssociatedMetrics: []string{"CG-AA-430a.1", "CG-AA-430a.2"},
		},
		{
			ID:                "EM-EP-001",
			IndustryCode:      "EM-EP",
			Name:              "Greenhouse Gas Emissions",
			Description:       "Direct scope 1 emissions and methane management.",
			AssociatedMetrics: []string{"EM-EP-110a.1", "EM-EP-110a.2"},
		},
	}
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultIndustries(), DefaultTopics())
	if err != nil {
		panic("built-in catalog is invalid: " + err.Error())
	}
	return c
}
