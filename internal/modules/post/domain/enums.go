//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MediaType represents the kind of media attached to a post
// ENUM(photo,video,animated_gif)
type MediaType string
