package resolve

import (
	"maps"
	"slices"

	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/target"
)

// Strategy names, in resolution order.
const (
	StrategyStableID   = "stable-id"
	StrategySelector   = "selector"
	StrategyXPath      = "xpath"
	StrategyAttributes = "attributes"
	StrategyPoint      = "point"
	StrategyTag        = "tag"
	StrategyText       = "text"
	StrategyRegion     = "region"
)

// FindFunc looks an element up with one locator strategy. It returns nil on
// a miss. An error reports a malformed locator and also counts as a miss.
type FindFunc func(loc *target.ElementLocator, doc dom.Document) (dom.Element, error)

// Strategy is a named FindFunc.
type Strategy struct {
	Name string
	Find FindFunc
}

// DefaultStrategies is the element fallback chain, strongest first.
var DefaultStrategies = []Strategy{
	{StrategyStableID, byStableID},
	{StrategySelector, bySelector},
	{StrategyXPath, byXPath},
	{StrategyAttributes, byAttributes},
	{StrategyPoint, byPoint},
	{StrategyTag, byTag},
}

// Rank returns the position of a strategy in DefaultStrategies, or
// len(DefaultStrategies) when unknown.
func Rank(name string) int {
	for i, s := range DefaultStrategies {
		if s.Name == name {
			return i
		}
	}
	return len(DefaultStrategies)
}

// priorityAttrs are tried before the remaining attributes.
var priorityAttrs = []string{"id", "name", "data-testid", "aria-label", "href", "src", "title", "alt"}

func byStableID(loc *target.ElementLocator, doc dom.Document) (dom.Element, error) {
	if loc.StableID == "" {
		return nil, nil
	}
	return doc.ElementByStableID(loc.StableID), nil
}

// bySelector rejects a match whose tag differs from the recorded one or that
// lost one of the recorded classes.
func bySelector(loc *target.ElementLocator, doc dom.Document) (dom.Element, error) {
	if loc.Selector == "" {
		return nil, nil
	}
	el, err := doc.QuerySelector(loc.Selector)
	if err != nil || el == nil {
		return nil, err
	}
	if loc.TagName != "" && !dom.SameTag(el, loc.TagName) {
		return nil, nil
	}
	if !dom.HasClasses(el, loc.ClassList) {
		return nil, nil
	}
	return el, nil
}

func byXPath(loc *target.ElementLocator, doc dom.Document) (dom.Element, error) {
	if loc.XPath == "" {
		return nil, nil
	}
	return doc.EvaluateXPath(loc.XPath)
}

func byAttributes(loc *target.ElementLocator, doc dom.Document) (dom.Element, error) {
	if len(loc.Attributes) == 0 {
		return nil, nil
	}
	tried := make(map[string]bool)
	try := func(k string) dom.Element {
		v, ok := loc.Attributes[k]
		if !ok || tried[k] {
			return nil
		}
		tried[k] = true
		return doc.QueryAttribute(k, v)
	}
	for _, k := range priorityAttrs {
		if el := try(k); el != nil {
			return el, nil
		}
	}
	for _, k := range slices.Sorted(maps.Keys(loc.Attributes)) {
		if el := try(k); el != nil {
			return el, nil
		}
	}
	return nil, nil
}

// byPoint hit-tests the stored page position at the current scroll, then
// walks up until an ancestor carries the recorded tag.
func byPoint(loc *target.ElementLocator, doc dom.Document) (dom.Element, error) {
	if loc.Position == nil || loc.ElementRect == nil {
		return nil, nil
	}
	client := loc.Position.Sub(doc.Scroll())
	for el := doc.ElementFromPoint(client); el != nil; el = el.Parent() {
		if loc.TagName == "" || dom.SameTag(el, loc.TagName) {
			return el, nil
		}
	}
	return nil, nil
}

func byTag(loc *target.ElementLocator, doc dom.Document) (dom.Element, error) {
	if loc.TagName == "" {
		return nil, nil
	}
	return doc.FirstByTag(loc.TagName), nil
}
