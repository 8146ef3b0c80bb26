package domain

var Tables = []interface{}{
	// System
	&User{},
	// Catalog
	&Product{},
	&Pillow{},
	&EPESheet{},
	&Review{},
	// Sales
	&Order{},
	&CompanyInfo{},
	&Inquiry{},
}
