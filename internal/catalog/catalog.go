// Package catalog holds the in-memory reference data behind the pharmacy,
// health library and patient history screens, plus the hospital directory
// used by location-pick questions and the ambulance tracker. All data is
// seeded at construction; there is no persistence layer.
package catalog

import "strings"

// Product is one pharmacy catalogue entry.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    string  `json:"price"`
	Rating   float64 `json:"rating"`
	Discount string  `json:"discount"`
	Category string  `json:"category"`
}

// Category is one pharmacy shop-by-category tile.
type Category struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Topic is one health library article.
type Topic struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ReadTime string `json:"read_time"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// Document is one patient history record.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Date     string `json:"date"`
	Size     string `json:"size"`
	Category string `json:"category"`
}

// Hospital is one directory entry, selectable by location-pick questions and
// usable as a tracker destination.
type Hospital struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Store serves the seeded reference data. Read-only after construction, safe
// for concurrent use.
type Store struct {
	categories []Category
	products   []Product
	topics     []Topic
	documents  []Document
	hospitals  []Hospital
	search     *matcher
}

// New returns a Store seeded with the builtin catalogue.
func New() *Store {
	return &Store{
		categories: pharmacyCategories,
		products:   featuredProducts,
		topics:     healthTopics,
		documents:  patientDocuments,
		hospitals:  hospitalDirectory,
		search:     newMatcher(),
	}
}

// Categories returns the pharmacy categories in presentation order.
func (s *Store) Categories() []Category { return s.categories }

// Products returns the featured products, optionally filtered by category.
func (s *Store) Products(category string) []Product {
	if category == "" {
		return s.products
	}
	var out []Product
	for _, p := range s.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Topics returns the health library articles, optionally filtered by
// category.
func (s *Store) Topics(category string) []Topic {
	if category == "" {
		return s.topics
	}
	var out []Topic
	for _, t := range s.topics {
		if strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}

// Documents returns the patient history records, optionally filtered by
// category.
func (s *Store) Documents(category string) []Document {
	if category == "" {
		return s.documents
	}
	var out []Document
	for _, d := range s.documents {
		if strings.EqualFold(d.Category, category) {
			out = append(out, d)
		}
	}
	return out
}

// Hospitals returns the hospital directory.
func (s *Store) Hospitals() []Hospital { return s.hospitals }

// HospitalByName looks a hospital up by exact, case-insensitive name.
func (s *Store) HospitalByName(name string) (Hospital, bool) {
	for _, h := range s.hospitals {
		if strings.EqualFold(h.Name, name) {
			return h, true
		}
	}
	return Hospital{}, false
}

// SearchProducts returns products whose names match the query, best first.
// Matching is substring plus phonetic fuzzy, so "vitamine dee" still finds
// the Vitamin D3 tablets.
func (s *Store) SearchProducts(query string) []Product {
	var out []Product
	for _, p := range rank(s.search, query, s.products, func(p Product) string { return p.Name }) {
		out = append(out, p)
	}
	return out
}

// SearchTopics returns health library articles matching the query, best
// first. Titles and categories both count.
func (s *Store) SearchTopics(query string) []Topic {
	return rank(s.search, query, s.topics, func(t Topic) string { return t.Title + " " + t.Category })
}

// SearchDocuments returns patient history records matching the query, best
// first.
func (s *Store) SearchDocuments(query string) []Document {
	return rank(s.search, query, s.documents, func(d Document) string { return d.Name + " " + d.Category })
}

// SearchHospitals returns directory entries matching the query, best first.
func (s *Store) SearchHospitals(query string) []Hospital {
	return rank(s.search, query, s.hospitals, func(h Hospital) string { return h.Name + " " + h.Address })
}

// ---- seeded data ----

var pharmacyCategories = []Category{
	{Name: "Vitamins & Supplements", Icon: "💊", Description: "Essential vitamins and nutritional supplements"},
	{Name: "Monsoon Store", Icon: "🌧️", Description: "Seasonal health products for monsoon wellness"},
	{Name: "Ayurvedic Care", Icon: "🌿", Description: "Traditional Ayurvedic medicines and remedies"},
	{Name: "Sports Nutrition", Icon: "💪", Description: "Protein powders and sports supplements"},
	{Name: "Diabetes Essentials", Icon: "🩺", Description: "Blood glucose monitors and diabetic care"},
	{Name: "Mobility & Elderly Care", Icon: "🦽", Description: "Mobility aids and elderly care products"},
	{Name: "Protein", Icon: "🥛", Description: "Protein supplements and meal replacements"},
	{Name: "Personal Care", Icon: "🧴", Description: "Personal hygiene and care products"},
	{Name: "Mother and Baby Care", Icon: "👶", Description: "Pregnancy and baby care essentials"},
}

var featuredProducts = []Product{
	{ID: "p1", Name: "Vitamin D3 Tablets", Price: "₹299", Rating: 4.5, Discount: "20% OFF", Category: "Vitamins & Supplements"},
	{ID: "p2", Name: "Immunity Booster Syrup", Price: "₹450", Rating: 4.8, Discount: "15% OFF", Category: "Ayurvedic Care"},
	{ID: "p3", Name: "Blood Pressure Monitor", Price: "₹1,299", Rating: 4.6, Discount: "10% OFF", Category: "Diabetes Essentials"},
	{ID: "p4", Name: "Protein Powder 1kg", Price: "₹899", Rating: 4.4, Discount: "25% OFF", Category: "Sports Nutrition"},
}

var healthTopics = []Topic{
	{ID: "t1", Title: "Diabetes Management", ReadTime: "12 min read", Author: "Dr. Sarah Johnson", Category: "Chronic Conditions"},
	{ID: "t2", Title: "Heart Health Essentials", ReadTime: "15 min read", Author: "Dr. Michael Chen", Category: "Cardiology"},
	{ID: "t3", Title: "Mental Health & Wellness", ReadTime: "10 min read", Author: "Dr. Emily Rodriguez", Category: "Mental Health"},
	{ID: "t4", Title: "Nutrition & Diet", ReadTime: "8 min read", Author: "Dr. Lisa Wang", Category: "Nutrition"},
	{ID: "t5", Title: "Exercise & Fitness", ReadTime: "14 min read", Author: "Dr. James Wilson", Category: "Fitness"},
	{ID: "t6", Title: "Sleep Disorders", ReadTime: "11 min read", Author: "Dr. Rachel Green", Category: "Sleep Medicine"},
}

var patientDocuments = []Document{
	{ID: "1", Name: "Blood Test Results - March 2024", Type: "PDF", Date: "2024-03-15", Size: "2.3 MB", Category: "Lab Results"},
	{ID: "2", Name: "Chest X-Ray Report", Type: "PDF", Date: "2024-02-28", Size: "1.8 MB", Category: "Imaging"},
	{ID: "3", Name: "Cardiology Consultation", Type: "PDF", Date: "2024-02-15", Size: "512 KB", Category: "Consultation"},
	{ID: "4", Name: "Prescription - Dr. Smith", Type: "PDF", Date: "2024-01-30", Size: "256 KB", Category: "Prescription"},
}

var hospitalDirectory = []Hospital{
	{Name: "Apollo Hospital, Hyderabad", Address: "Jubilee Hills, Hyderabad", Lat: 17.4065, Lng: 78.4772},
	{Name: "Yashoda Hospitals, Somajiguda", Address: "Somajiguda, Hyderabad", Lat: 17.4261, Lng: 78.4580},
	{Name: "CARE Hospitals, Banjara Hills", Address: "Banjara Hills, Hyderabad", Lat: 17.4108, Lng: 78.4489},
	{Name: "KIMS Hospitals, Secunderabad", Address: "Minister Road, Secunderabad", Lat: 17.4418, Lng: 78.4900},
	{Name: "Osmania General Hospital", Address: "Afzal Gunj, Hyderabad", Lat: 17.3724, Lng: 78.4740},
}
