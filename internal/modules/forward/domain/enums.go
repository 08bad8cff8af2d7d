//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// SendKind is the shape of the message produced for a post
// ENUM(text,photo,video,media_group)
type SendKind string
