package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/repo"
)

type item struct {
	name, description string
	price             string
	stock             int
	rating            string
	reviews           int
}

var bakery = []item{
	{"Pão Francês", "Pãozinho tradicional brasileiro, crocante por fora e macio por dentro", "0.75", 200, "4.8", 156},
	{"Pão de Forma Integral", "Pão de forma integral, nutritivo e saboroso. Fatias ideais para lanche", "8.50", 50, "4.5", 89},
	{"Pão de Açúcar", "Pão doce tradicional, levemente adocicado e muito macio", "1.25", 80, "4.7", 124},
	{"Pão de Queijo", "Autêntico pão de queijo mineiro, feito com polvilho e queijo", "2.00", 150, "4.9", 203},
	{"Bisnaguinha", "Pãozinho doce pequeno, perfeito para o lanche escolar", "0.60", 120, "4.6", 98},
	{"Pão Italiano", "Pão crocante com casca dourada e miolo aerado", "2.50", 60, "4.4", 67},
	{"Pão de Leite", "Pão macio e levemente doce, feito com leite fresco", "1.50", 90, "4.8", 142},
	{"Pão Integral", "Pão integral rico em fibras, ideal para uma alimentação saudável", "1.75", 70, "4.3", 85},
	{"Rosquinha Doce", "Rosquinha tradicional levemente doce, perfeita para o café da manhã", "1.00", 100, "4.7", 118},
	{"Pão de Centeio", "Pão escuro e nutritivo, feito com farinha de centeio", "3.00", 40, "4.2", 54},
	{"Croissant Simples", "Croissant tradicional, folhado e amanteigado", "4.50", 35, "4.6", 76},
	{"Pão de Batata", "Pão macio feito com batata, textura única e sabor suave", "2.25", 55, "4.5", 91},
}

// Catalog returns fresh copies of the starter products.
func Catalog() []models.Product {
	out := make([]models.Product, 0, len(bakery))
	for _, it := range bakery {
		out = append(out, models.Product{
			Name:        it.name,
			Description: it.description,
			Price:       decimal.RequireFromString(it.price),
			Stock:       it.stock,
			Rating:      decimal.RequireFromString(it.rating),
			ReviewCount: it.reviews,
			IsActive:    true,
		})
	}
	return out
}

// Products inserts the starter catalog when the products table is empty and
// returns how many rows were written.
func Products(ctx context.Context, r *repo.GormRepo) (int, error) {
	n, err := r.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	prods := Catalog()
	if err := r.CreateProducts(ctx, prods); err != nil {
		return 0, fmt.Errorf("seed: create products: %w", err)
	}
	return len(prods), nil
}
