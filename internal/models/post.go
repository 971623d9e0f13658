package models

import "time"

type BulletPoint struct {
	Text  string `bson:"text" json:"text"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

type Subtitle struct {
	Title        string        `bson:"title" json:"title"`
	Image        string        `bson:"image,omitempty" json:"image,omitempty"`
	BulletPoints []BulletPoint `bson:"bulletPoints" json:"bulletPoints"`
}

// ComparisonItem is one cell of a comparison table row.
type ComparisonItem struct {
	Title        string   `bson:"title" json:"title"`
	BulletPoints []string `bson:"bulletPoints" json:"bulletPoints"`
}

type ComparisonAttribute struct {
	Attribute string           `bson:"attribute" json:"attribute"`
	Items     []ComparisonItem `bson:"items" json:"items"`
}

// SuperTitle is a comparison-table row group.
type SuperTitle struct {
	SuperTitle string                `bson:"superTitle" json:"superTitle"`
	Attributes []ComparisonAttribute `bson:"attributes" json:"attributes"`
}

// Post is authored content. Posts are immutable once created.
type Post struct {
	ID          string       `bson:"_id,omitempty" json:"postId"`
	Title       string       `bson:"title" json:"title"`
	Content     string       `bson:"content" json:"content"`
	Category    string       `bson:"category" json:"category"`
	Slug        string       `bson:"slug" json:"slug"`
	Author      string       `bson:"author" json:"author"`
	AuthorID    string       `bson:"authorId" json:"authorId"`
	Date        time.Time    `bson:"date" json:"date"`
	TitleImage  string       `bson:"titleImage,omitempty" json:"titleImage,omitempty"`
	TitleVideo  string       `bson:"titleVideo,omitempty" json:"titleVideo,omitempty"`
	Summary     string       `bson:"summary,omitempty" json:"summary,omitempty"`
	Subtitles   []Subtitle   `bson:"subtitles" json:"subtitles"`
	SuperTitles []SuperTitle `bson:"superTitles" json:"superTitles"`
}
