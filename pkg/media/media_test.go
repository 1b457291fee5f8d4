package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTransformation(t *testing.T) {
	in := "https://res.cloudinary.com/demo/image/upload/v1699/Images/shirt.jpg"
	want := "https://res.cloudinary.com/demo/image/upload/c_fit,h_500,w_500/v1699/Images/shirt.jpg"

	assert.Equal(t, want, ApplyTransformation(in, ResizeTransformation))
}

func TestPublicIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1699/Images/shirt.jpg":                   "Images/shirt",
		"https://res.cloudinary.com/demo/image/upload/c_fit,h_500,w_500/v1699/Images/shirt.jpg": "Images/shirt",
		"https://res.cloudinary.com/demo/image/upload/c_fit,h_500,w_500/Images/shirt.png":       "Images/shirt",
		"https://res.cloudinary.com/demo/image/upload/shirt.webp":                               "shirt",
		"https://example.com/not-a-cloudinary-url.jpg":                                          "",
	}

	for url, want := range cases {
		assert.Equal(t, want, PublicIDFromURL(url), url)
	}
}
