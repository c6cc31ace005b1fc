package generator

import "context"

// Placeholder does no work and always answers with PlaceholderURL.
type Placeholder struct{}

func (Placeholder) Name() string {
	return "placeholder"
}

func (Placeholder) Generate(ctx context.Context, _ Request) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Image{Ref: PlaceholderURL, Backend: "placeholder"}, nil
}
