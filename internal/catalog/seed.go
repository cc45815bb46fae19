package catalog

var deltaDistricts = []string{"Thanjavur", "Tiruvarur", "Nagapattinam", "Mayiladuthurai"}

// Seed returns the built-in Tamil Nadu subsidy programs.
func Seed() []Subsidy {
	return []Subsidy{
		{
			ID:          "pm-kisan",
			Name:        "PM-KISAN Samman Nidhi",
			Description: "Income support of Rs. 6,000 per year paid in three instalments to landholding farmer families.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "பிரதமர் கிசான் சம்மான் நிதி",
					Description: "நிலம் வைத்திருக்கும் விவசாயக் குடும்பங்களுக்கு ஆண்டுக்கு ரூ. 6,000 மூன்று தவணைகளில் வருமான உதவி.",
				},
			},
			Category: CategoryDirectIncomeSupport,
			Amount:   6000,
			Eligibility: Eligibility{
				MinLandSize: 0.01,
				FarmerType:  RestrictTo("small", "marginal"),
			},
			Documents:      []string{"Aadhaar Card", "Land Ownership Records (Patta)", "Bank Passbook"},
			ApplicationURL: "https://pmkisan.gov.in",
		},
		{
			ID:          "pmksy-micro-irrigation",
			Name:        "PMKSY Micro Irrigation (Per Drop More Crop)",
			Description: "Subsidy for drip and sprinkler irrigation systems, up to 100% for small and marginal farmers.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "பிரதமர் கிருஷி சிஞ்சாயி யோஜனா - நுண்ணீர் பாசனம்",
					Description: "சொட்டு நீர் மற்றும் தெளிப்பு நீர் பாசன அமைப்புகளுக்கான மானியம்; சிறு, குறு விவசாயிகளுக்கு 100% வரை.",
				},
			},
			Category: CategoryIrrigation,
			Amount:   100000,
			Eligibility: Eligibility{
				MinLandSize: 0.5,
				MaxLandSize: Float(12.5),
				Crops:       RestrictTo("sugarcane", "banana", "coconut", "vegetables", "cotton", "turmeric", "groundnut"),
			},
			Documents:      []string{"Aadhaar Card", "Chitta / Adangal", "Water Source Certificate", "Bank Passbook"},
			ApplicationURL: "https://tnhorticulture.tn.gov.in/microirrigation",
		},
		{
			ID:          "pmfby",
			Name:        "Pradhan Mantri Fasal Bima Yojana",
			Description: "Crop insurance against yield loss from natural calamities, pests and diseases at low farmer premiums.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "பிரதமர் பயிர் காப்பீட்டுத் திட்டம்",
					Description: "இயற்கைப் பேரிடர், பூச்சி மற்றும் நோய்களால் ஏற்படும் மகசூல் இழப்புக்கு குறைந்த பிரீமியத்தில் பயிர் காப்பீடு.",
				},
			},
			Category: CategoryCropInsurance,
			Amount:   50000,
			Eligibility: Eligibility{
				Crops: RestrictTo("paddy", "maize", "millets", "pulses", "groundnut", "cotton", "sugarcane", "banana"),
			},
			Documents:      []string{"Aadhaar Card", "Sowing Certificate", "Land Records", "Bank Passbook"},
			ApplicationURL: "https://pmfby.gov.in",
		},
		{
			ID:          "pm-kusum-solar-pump",
			Name:        "PM-KUSUM Solar Pump Scheme",
			Description: "Subsidy on standalone solar-powered agricultural pump sets replacing diesel pumps.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "பிரதமர் குசும் - சூரிய சக்தி பம்பு செட்",
					Description: "டீசல் பம்புகளுக்குப் பதிலாக சூரிய சக்தியில் இயங்கும் வேளாண் பம்பு செட்டுகளுக்கு மானியம்.",
				},
			},
			Category: CategoryEnergy,
			Amount:   240000,
			Eligibility: Eligibility{
				MinLandSize: 1,
			},
			Documents:      []string{"Aadhaar Card", "Land Records", "Existing Pump Details", "Bank Passbook"},
			ApplicationURL: "https://aed.tn.gov.in",
		},
		{
			ID:          "kisan-credit-card",
			Name:        "Kisan Credit Card",
			Description: "Short-term crop loans up to Rs. 3 lakh at concessional interest with prompt repayment incentive.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "கிசான் கடன் அட்டை",
					Description: "சலுகை வட்டியில் ரூ. 3 லட்சம் வரை குறுகிய கால பயிர்க் கடன்; உரிய நேரத் திருப்பிச் செலுத்தலுக்கு ஊக்கத்தொகை.",
				},
			},
			Category:       CategoryCredit,
			Amount:         300000,
			Documents:      []string{"Aadhaar Card", "Land Records", "Passport Photo"},
			ApplicationURL: "https://www.myscheme.gov.in/schemes/kcc",
		},
		{
			ID:          "pkvy-organic",
			Name:        "Paramparagat Krishi Vikas Yojana",
			Description: "Cluster-based support for converting to certified organic farming over three years.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "பரம்பராகத் கிருஷி விகாஸ் யோஜனா - இயற்கை விவசாயம்",
					Description: "மூன்று ஆண்டுகளில் சான்றளிக்கப்பட்ட இயற்கை விவசாயத்திற்கு மாற குழு அடிப்படையிலான உதவி.",
				},
			},
			Category: CategoryOrganicFarming,
			Amount:   31500,
			Eligibility: Eligibility{
				MinLandSize: 0.5,
				FarmerType:  RestrictTo("small", "marginal", "medium"),
				Crops:       RestrictTo("paddy", "millets", "pulses", "vegetables", "turmeric"),
			},
			Documents:      []string{"Aadhaar Card", "Land Records", "Cluster Membership Letter"},
			ApplicationURL: "https://pgsindia-ncof.gov.in",
		},
		{
			ID:          "smam-mechanization",
			Name:        "Sub-Mission on Agricultural Mechanization",
			Description: "Subsidy on tractors, power tillers and farm implements, higher for small and marginal farmers.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "வேளாண் இயந்திரமயமாக்கல் துணை இயக்கம்",
					Description: "டிராக்டர், பவர் டில்லர் மற்றும் வேளாண் கருவிகளுக்கு மானியம்; சிறு, குறு விவசாயிகளுக்கு அதிகம்.",
				},
			},
			Category: CategoryMechanization,
			Amount:   125000,
			Eligibility: Eligibility{
				MinLandSize: 1,
				FarmerType:  RestrictTo("small", "marginal", "medium", "large"),
			},
			Documents:      []string{"Aadhaar Card", "Land Records", "Quotation from Dealer", "Bank Passbook"},
			ApplicationURL: "https://agrimachinery.nic.in",
		},
		{
			ID:          "midh-horticulture",
			Name:        "Mission for Integrated Development of Horticulture",
			Description: "Assistance for area expansion, protected cultivation and post-harvest infrastructure for horticulture crops.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "ஒருங்கிணைந்த தோட்டக்கலை வளர்ச்சி இயக்கம்",
					Description: "தோட்டக்கலைப் பயிர்களுக்கான பரப்பு விரிவாக்கம், பாதுகாக்கப்பட்ட சாகுபடி மற்றும் அறுவடைக்குப் பிந்தைய கட்டமைப்புக்கு உதவி.",
				},
			},
			Category: CategoryHorticulture,
			Amount:   50000,
			Eligibility: Eligibility{
				MinLandSize: 0.25,
				MaxLandSize: Float(10),
				Crops:       RestrictTo("banana", "mango", "vegetables", "flowers", "coconut", "turmeric"),
				District:    RestrictTo("Krishnagiri", "Dharmapuri", "Dindigul", "Theni", "Coimbatore", "Erode", "Salem", "Nilgiris"),
			},
			Documents:      []string{"Aadhaar Card", "Chitta / Adangal", "Bank Passbook"},
			ApplicationURL: "https://tnhorticulture.tn.gov.in",
		},
		{
			ID:          "kuruvai-package",
			Name:        "Kuruvai Special Package",
			Description: "Free fertilisers and inputs for short-term kuruvai paddy cultivation in the Cauvery delta.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "குறுவை சிறப்புத் தொகுப்புத் திட்டம்",
					Description: "காவிரி டெல்டாவில் குறுவை நெல் சாகுபடிக்கு இலவச உரங்கள் மற்றும் இடுபொருட்கள்.",
				},
			},
			Category: CategoryCropDevelopment,
			Amount:   2466,
			Eligibility: Eligibility{
				MaxLandSize: Float(2.5),
				FarmerType:  RestrictTo("small", "marginal", "tenant"),
				Crops:       RestrictTo("paddy"),
				District:    RestrictTo(deltaDistricts...),
			},
			Documents:      []string{"Aadhaar Card", "Chitta / Adangal", "Bank Passbook"},
			ApplicationURL: "https://www.tnagrisnet.tn.gov.in",
		},
		{
			ID:          "tn-millet-mission",
			Name:        "Tamil Nadu Millet Mission",
			Description: "Input kits, seed subsidy and value-addition support for millet growers.",
			Translations: map[string]Translation{
				"ta": {
					Name:        "தமிழ்நாடு சிறுதானிய இயக்கம்",
					Description: "சிறுதானிய விவசாயிகளுக்கு இடுபொருள் தொகுப்பு, விதை மானியம் மற்றும் மதிப்புக் கூட்டல் உதவி.",
				},
			},
			Category: CategoryCropDevelopment,
			Amount:   7500,
			Eligibility: Eligibility{
				Crops: RestrictTo("millets", "ragi", "cumbu", "cholam", "samai"),
			},
			Documents:      []string{"Aadhaar Card", "Land Records"},
			ApplicationURL: "https://www.tnagrisnet.tn.gov.in",
		},
	}
}

// SeedCatalog builds the catalog from Seed.
func SeedCatalog() *Catalog {
	c, err := New(Seed())
	if err != nil {
		panic(err)
	}
	return c
}
