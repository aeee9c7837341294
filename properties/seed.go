package properties

import "time"

// SeedCreatedAt is the creation time stamped on the built-in listings, so that
// listings created later sort ahead of them.
var SeedCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// MaxSeedID is the highest id used by the built-in listings.
const MaxSeedID = 6

func unsplash(photo string) *string {
	s := "https://images.unsplash.com/" + photo + "?w=800&q=80"
	return &s
}

func str(s string) *string { return &s }

// Seeds returns a fresh copy of the six built-in listings.
func Seeds() []Property {
	seeds := []Property{
		{
			ID: 1, Title: "Apartamento Moderno no Centro", Price: 450000,
			Neighborhood: str("Centro"), Address: str("Rua das Flores, 123"), Type: TypeApartamento,
			Bedrooms: 3, Bathrooms: 2, Garages: 1, Area: 95,
			Description: str("Apartamento elegante com acabamento premium, localizado em área nobre do centro. Possui vista para a cidade, cozinha integrada e varanda ampla."),
			Image:       unsplash("photo-1522708323590-d24dbb6b0267"),
			Available:   FlagTrue, Featured: FlagTrue,
		},
		{
			ID: 2, Title: "Casa com Piscina e Jardim", Price: 750000,
			Neighborhood: str("Vila Mariana"), Address: str("Avenida Paulista, 456"), Type: TypeCasa,
			Bedrooms: 4, Bathrooms: 3, Garages: 2, Area: 280,
			Description: str("Casa espaçosa com piscina aquecida, jardim paisagístico e área de lazer completa. Ideal para famílias que buscam conforto e privacidade."),
			Image:       unsplash("photo-1600585154340-be6161a56a0c"),
			Available:   FlagTrue, Featured: FlagTrue,
		},
		{
			ID: 3, Title: "Studio Compacto e Funcional", Price: 280000,
			Neighborhood: str("Bom Fim"), Address: str("Rua Ramiro Barcelos, 789"), Type: TypeStudio,
			Bedrooms: 1, Bathrooms: 1, Garages: 0, Area: 35,
			Description: str("Studio bem aproveitado com cozinha integrada, ideal para profissionais ou casais. Localização estratégica próximo a transportes e comércios."),
			Image:       unsplash("photo-1502672260266-1c1ef2d93688"),
			Available:   FlagTrue, Featured: FlagFalse,
		},
		{
			ID: 4, Title: "Apartamento Duplex com Terraço", Price: 580000,
			Neighborhood: str("Moinhos de Vento"), Address: str("Rua Quintino Bocaiúva, 234"), Type: TypeApartamento,
			Bedrooms: 3, Bathrooms: 2, Garages: 1, Area: 120,
			Description: str("Duplex sofisticado com terraço privativo, cozinha gourmet e sala ampla. Condomínio com infraestrutura completa e segurança 24h."),
			Image:       unsplash("photo-1600607687939-ce8a6c25118c"),
			Available:   FlagTrue, Featured: FlagTrue,
		},
		{
			ID: 5, Title: "Sobrado em Condomínio Fechado", Price: 650000,
			Neighborhood: str("Três Figueiras"), Address: str("Rua Marquês de Pombal, 567"), Type: TypeSobrado,
			Bedrooms: 4, Bathrooms: 3, Garages: 2, Area: 200,
			Description: str("Sobrado moderno em condomínio fechado com segurança, áreas verdes e lazer. Perfeito para quem busca qualidade de vida e segurança."),
			Image:       unsplash("photo-1564013799919-ab600027ffc6"),
			Available:   FlagTrue, Featured: FlagFalse,
		},
		{
			ID: 6, Title: "Penthouse com Vista Panorâmica", Price: 1200000,
			Neighborhood: str("Bela Vista"), Address: str("Avenida Getúlio Vargas, 890"), Type: TypePenthouse,
			Bedrooms: 4, Bathrooms: 4, Garages: 2, Area: 250,
			Description: str("Penthouse exclusivo com vista 360° da cidade, acabamento de luxo, suíte master com spa privado e varanda panorâmica. Imóvel de alto padrão."),
			Image:       unsplash("photo-1600566753190-17f0baa2a6c3"),
			Available:   FlagTrue, Featured: FlagTrue,
		},
	}
	for i := range seeds {
		seeds[i].CreatedAt = SeedCreatedAt
		seeds[i].UpdatedAt = SeedCreatedAt
	}
	return seeds
}

var seedTitles = func() map[string]struct{} {
	m := make(map[string]struct{}, MaxSeedID)
	for _, p := range Seeds() {
		m[p.Title] = struct{}{}
	}
	return m
}()

// IsSeedTitle reports whether title belongs to one of the built-in listings.
// Such listings are read-only.
func IsSeedTitle(title string) bool {
	_, ok := seedTitles[title]
	return ok
}
