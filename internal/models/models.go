package models

import "time"

const (
	// DefaultStuffImage is the placeholder key stored when an item has no uploaded image
	DefaultStuffImage = "assets/Universal-0/imgs/no-image-icon.png"
	// DefaultAvatar is the avatar assigned at signup
	DefaultAvatar = "https://static.vecteezy.com/system/resources/previews/008/442/086/original/illustration-of-human-icon-user-symbol-icon-modern-design-on-blank-background-free-vector.jpg"
)

// Category is the fixed set of stuff categories
type Category string

const (
	CategoryMusic       Category = "Music"
	CategoryPhotography Category = "Photography"
	CategoryTechnology  Category = "Technology"
	CategoryClothes     Category = "Clothes"
	CategoryKitchen     Category = "Kitchen"
	CategorySports      Category = "Sports"
	CategoryDecoration  Category = "Decoration"
	CategoryBooks       Category = "Books"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryMusic, CategoryPhotography, CategoryTechnology, CategoryClothes,
	CategoryKitchen, CategorySports, CategoryDecoration, CategoryBooks, CategoryOther,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// User is a registered account. Followers/Following mirror each other across users;
// LikedStuff/LikedCollections mirror the Likes sets on the liked documents.
type User struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	NickName         string    `json:"nick_name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Avatar           string    `json:"avatar"`
	PushToken        *string   `json:"-"`
	Followers        []string  `json:"-"`
	Following        []string  `json:"-"`
	LikedStuff       []string  `json:"-"`
	LikedCollections []string  `json:"-"`
	Tokens           []string  `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName joins first and last name
func (u *User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Stuff is an item posted by its owner
type Stuff struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	Price        float64   `json:"price"`
	HasOffer     bool      `json:"has_offer"`
	OfferPrice   float64   `json:"offer_price"`
	ShoppingLink string    `json:"shopping_link"`
	Category     Category  `json:"category"`
	Views        int64     `json:"views"`
	Likes        []string  `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Collection is an ordered group of stuff ids curated by its owner
type Collection struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Stuff       []string  `json:"-"`
	Likes       []string  `json:"-"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RatingComment is a 1..5 rating with optional text left on a stuff item
type RatingComment struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	StuffID   string    `json:"stuff_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionComment is a question asked on a stuff item. Answers reference it.
type QuestionComment struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	StuffID   string    `json:"stuff_id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Answer replies to a question comment
type Answer struct {
	ID         string    `json:"id"`
	FromID     string    `json:"from_id"`
	QuestionID string    `json:"question_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
