package services

import (
	"fmt"
	"strings"

	"spiceexport/internal/catalog"
)

// ChatService is a scripted assistant answering catalog questions by keyword.
type ChatService struct {
	catalog *catalog.Catalog
	contact string
}

// NewChatService creates a ChatService. contact is offered when a question cannot be answered.
func NewChatService(cat *catalog.Catalog, contact string) *ChatService {
	return &ChatService{catalog: cat, contact: contact}
}

type intent struct {
	keywords []string
	answer   func(s *ChatService, products []catalog.Product) string
}

var intents = []intent{
	{[]string{"origin", "where", "from", "source", "grown"}, (*ChatService).answerOrigin},
	{[]string{"harvest", "season", "when", "fresh"}, (*ChatService).answerHarvest},
	{[]string{"certif", "organic", "fssai", "iso", "halal"}, (*ChatService).answerCertifications},
	{[]string{"minimum", "moq", "min order", "smallest"}, (*ChatService).answerMinimum},
	{[]string{"price", "cost", "rate", "quote", "quotation", "order", "buy"}, (*ChatService).answerOrdering},
	{[]string{"contact", "email", "phone", "call", "human", "agent"}, (*ChatService).answerContact},
	{[]string{"products", "sell", "offer", "catalog", "list", "spices"}, (*ChatService).answerList},
	{[]string{"hello", "hi", "hey", "namaste"}, (*ChatService).answerGreeting},
}

// Reply answers one message.
func (s *ChatService) Reply(message string) string {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return s.answerGreeting(nil)
	}
	products := s.catalog.Match(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, in := range intents {
		for _, kw := range in.keywords {
			if matchesKeyword(text, words, kw) {
				return in.answer(s, products)
			}
		}
	}
	if len(products) > 0 {
		return describe(products[0])
	}
	return fmt.Sprintf("I'm not sure about that. Ask me about our spices, their origin, harvest season or certifications, or reach our team at %s.", s.contact)
}

// matchesKeyword matches short keywords as whole words and longer ones as prefixes.
func matchesKeyword(text string, words []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(text, kw)
	}
	for _, w := range words {
		if w == kw || (len(kw) > 4 && strings.HasPrefix(w, kw)) {
			return true
		}
	}
	return false
}

func (s *ChatService) answerOrigin(products []catalog.Product) string {
	if len(products) == 0 {
		return "Our spices are sourced directly from growers in Kerala, Tamil Nadu and Andhra Pradesh. Which spice would you like to know about?"
	}
	return perProduct(products, func(p catalog.Product) string {
		return fmt.Sprintf("%s comes from %s.", p.Name, p.Origin)
	})
}

func (s *ChatService) answerHarvest(products []catalog.Product) string {
	if len(products) == 0 {
		return "Harvest seasons vary by spice. Name a spice and I'll tell you its harvest window."
	}
	return perProduct(products, func(p catalog.Product) string {
		return fmt.Sprintf("%s is harvested from %s.", p.Name, p.HarvestWindow)
	})
}

func (s *ChatService) answerCertifications(products []catalog.Product) string {
	if len(products) == 0 {
		products = s.catalog.All()
	}
	return perProduct(products, func(p catalog.Product) string {
		return fmt.Sprintf("%s: %s.", p.Name, strings.Join(p.Certifications, ", "))
	})
}

func (s *ChatService) answerMinimum(products []catalog.Product) string {
	if len(products) == 0 {
		products = s.catalog.All()
	}
	return perProduct(products, func(p catalog.Product) string {
		return fmt.Sprintf("Minimum order for %s is %d kg.", p.Name, p.MinOrderKg)
	})
}

func (s *ChatService) answerOrdering(products []catalog.Product) string {
	msg := "Prices follow the daily market. Add products to your cart and submit a quotation request; our team replies with pricing, shipping and a delivery date."
	if len(products) > 0 {
		msg = fmt.Sprintf("%s is quoted at the daily market rate. %s", products[0].Name, msg)
	}
	return msg
}

func (s *ChatService) answerContact([]catalog.Product) string {
	return fmt.Sprintf("You can reach our export team at %s.", s.contact)
}

func (s *ChatService) answerList([]catalog.Product) string {
	names := make([]string, 0)
	for _, p := range s.catalog.All() {
		names = append(names, p.Name)
	}
	return "We export " + strings.Join(names, ", ") + "."
}

func (s *ChatService) answerGreeting([]catalog.Product) string {
	return "Hello! I can tell you about our spices, where they are grown, harvest seasons, certifications and how to request a quotation."
}

func perProduct(products []catalog.Product, line func(catalog.Product) string) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, line(p))
	}
	return strings.Join(lines, " ")
}

func describe(p catalog.Product) string {
	return fmt.Sprintf("%s: %s Grown in %s, harvested %s.", p.Name, p.Description, p.Origin, p.HarvestWindow)
}
