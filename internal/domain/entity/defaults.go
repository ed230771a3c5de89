package entity

// Starter records used when a collection has no persisted data. Identifiers and
// creation times are assigned by the collection when it seeds them.

func DefaultClients() []Client {
	return []Client{
		{Name: "Demo Client", Email: "demo@example.com", Company: "Demo Co", Plan: "starter", Credits: 200},
	}
}

func DefaultDomains() []Domain {
	return []Domain{
		{Name: "mail.example.com", Status: DomainStatusVerified, Verified: true, Default: true, DKIM: true, SPF: true, DMARC: true},
	}
}

func DefaultTemplates() []Template {
	return []Template{
		{Name: "Welcome", Subject: "Welcome aboard", Category: "onboarding", Content: "<h1>Welcome, {{name}}!</h1>"},
		{Name: "Monthly Newsletter", Subject: "This month at {{company}}", Category: "newsletter", Content: "<h1>News</h1>"},
	}
}

func DefaultLists() []List {
	return []List{
		{Name: "Newsletter Subscribers", Description: "Everyone who opted in to the newsletter"},
	}
}
