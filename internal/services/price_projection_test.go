package services

import (
	"testing"

	domain "github.com/brightcart/api/internal/domain"
)

func TestSalePrice(t *testing.T) {
	cases := []struct {
		list, discount float64
		want           int64
	}{
		{999, 10, 899},
		{999, 0, 999},
		{999, 100, 0},
		{1000, 33.3, 667},
		{49.5, 0, 50},
		{0, 50, 0},
	}
	for _, tc := range cases {
		if got := SalePrice(tc.list, tc.discount); got != tc.want {
			t.Fatalf("SalePrice(%v, %v) = %d, want %d", tc.list, tc.discount, got, tc.want)
		}
	}
}

func TestProductPresenterAttachesPriceAndImages(t *testing.T) {
	presenter := NewProductPresenter(NewImageURLNormalizer("https://shop.example.com", nil))
	in := domain.Product{ID: "p1", ListPrice: 999, DiscountPercent: 10, Images: domain.ProductImages{Image1: "a.jpg"}}

	out := presenter.Present(in)
	if !out.DisplayReady() || *out.SalePrice != 899 {
		t.Fatalf("expected sale price 899, got %+v", out.SalePrice)
	}
	if out.Images.Image1 != "https://shop.example.com/a.jpg" {
		t.Fatalf("unexpected image %q", out.Images.Image1)
	}
	if in.SalePrice != nil {
		t.Fatalf("presenter must not mutate its input")
	}
}
