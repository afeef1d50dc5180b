package prestashop

// Product is a row of GET /api/products with display=[id,reference,name,id_category_default].
type Product struct {
	ID                FlexInt   `json:"id"`
	Reference         TextValue `json:"reference"`
	Name              TextValue `json:"name"`
	DefaultCategoryID FlexInt   `json:"id_category_default"`
}

// StockAvailable is a row of GET /api/stock_availables.
type StockAvailable struct {
	ID        FlexInt `json:"id"`
	ProductID FlexInt `json:"id_product"`
	Quantity  FlexInt `json:"quantity"`
}

type Category struct {
	ID   FlexInt   `json:"id"`
	Name TextValue `json:"name"`
}

type OrderRef struct {
	ID FlexInt `json:"id"`
}

// Order is the detail payload of GET /api/orders/{id}.
type Order struct {
	ID                FlexInt           `json:"id"`
	Reference         FlexString        `json:"reference"`
	TotalPaid         FlexString        `json:"total_paid"`
	CurrentState      FlexString        `json:"current_state"`
	Payment           FlexString        `json:"payment"`
	DateAdd           FlexString        `json:"date_add"`
	CustomerID        FlexInt           `json:"id_customer"`
	AddressDeliveryID FlexInt           `json:"id_address_delivery"`
	Associations      OrderAssociations `json:"associations"`
}

type OrderAssociations struct {
	OrderRows OneOrMany[OrderRow] `json:"order_rows"`
}

type OrderRow struct {
	ID                FlexInt    `json:"id"`
	ProductID         FlexInt    `json:"product_id"`
	ProductName       FlexString `json:"product_name"`
	ProductReference  FlexString `json:"product_reference"`
	ProductQuantity   FlexString `json:"product_quantity"`
	ProductPrice      FlexString `json:"product_price"`
	TotalPriceTaxIncl FlexString `json:"total_price_tax_incl"`
}

type Customer struct {
	ID        FlexInt    `json:"id"`
	Firstname FlexString `json:"firstname"`
	Lastname  FlexString `json:"lastname"`
	Email     FlexString `json:"email"`
}

type Address struct {
	ID          FlexInt    `json:"id"`
	Address1    FlexString `json:"address1"`
	Address2    FlexString `json:"address2"`
	Postcode    FlexString `json:"postcode"`
	City        FlexString `json:"city"`
	Country     FlexString `json:"country"`
	Phone       FlexString `json:"phone"`
	PhoneMobile FlexString `json:"phone_mobile"`
}

type productPrice struct {
	WholesalePrice FlexString `json:"wholesale_price"`
}

type Shop struct {
	ID         FlexInt    `json:"id"`
	Name       FlexString `json:"name"`
	Logo       FlexString `json:"logo"`
	Favicon    FlexString `json:"favicon"`
	ThemeColor FlexString `json:"theme_color"`
}

// Response envelopes.

type productsResponse struct {
	Products OneOrMany[Product] `json:"products"`
}

type stockAvailablesResponse struct {
	StockAvailables OneOrMany[StockAvailable] `json:"stock_availables"`
}

type categoriesResponse struct {
	Categories OneOrMany[Category] `json:"categories"`
}

type ordersResponse struct {
	Orders OneOrMany[OrderRef] `json:"orders"`
}

type orderResponse struct {
	Order *Order `json:"order"`
}

type customerResponse struct {
	Customer *Customer `json:"customer"`
}

type addressResponse struct {
	Address *Address `json:"address"`
}

type productPriceResponse struct {
	Product *productPrice `json:"product"`
}

type shopsResponse struct {
	Shops OneOrMany[Shop] `json:"shops"`
}
