package catalog

var districts = []string{
	"Ariyalur", "Chengalpattu", "Chennai", "Coimbatore", "Cuddalore",
	"Dharmapuri", "Dindigul", "Erode", "Kallakurichi", "Kanchipuram",
	"Kanniyakumari", "Karur", "Krishnagiri", "Madurai", "Mayiladuthurai",
	"Nagapattinam", "Namakkal", "Nilgiris", "Perambalur", "Pudukkottai",
	"Ramanathapuram", "Ranipet", "Salem", "Sivaganga", "Tenkasi",
	"Thanjavur", "Theni", "Thoothukudi", "Tiruchirappalli", "Tirunelveli",
	"Tirupathur", "Tiruppur", "Tiruvallur", "Tiruvannamalai", "Tiruvarur",
	"Vellore", "Viluppuram", "Virudhunagar",
}

var districtIndex = func() map[string]string {
	m := make(map[string]string, len(districts))
	for _, d := range districts {
		m[Normalize(d)] = d
	}
	return m
}()

// Districts returns the Tamil Nadu administrative districts.
func Districts() []string {
	out := make([]string, len(districts))
	copy(out, districts)
	return out
}

// CanonicalDistrict maps a district name in any case to its canonical
// spelling.
func CanonicalDistrict(name string) (string, bool) {
	d, ok := districtIndex[Normalize(name)]
	return d, ok
}
