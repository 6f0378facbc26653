package names

// nicknamePairs is the fixed bidirectional nickname table. Each pair maps in
// both directions when building variants; the table is append-only so the
// same raw input always yields the same variant set.
var nicknamePairs = [][2]string{
	{"michael", "mike"},
	{"matthew", "matt"},
	{"christopher", "chris"},
	{"christian", "chris"},
	{"anthony", "tony"},
	{"alexander", "alex"},
	{"benjamin", "ben"},
	{"cameron", "cam"},
	{"daniel", "dan"},
	{"daniel", "danny"},
	{"david", "dave"},
	{"dominic", "dom"},
	{"edward", "ed"},
	{"gabriel", "gabe"},
	{"isaiah", "zay"},
	{"jacob", "jake"},
	{"james", "jim"},
	{"jeffrey", "jeff"},
	{"jonathan", "jon"},
	{"joseph", "joe"},
	{"joshua", "josh"},
	{"kenneth", "ken"},
	{"marcus", "marc"},
	{"nathaniel", "nate"},
	{"nicholas", "nick"},
	{"patrick", "pat"},
	{"robert", "rob"},
	{"robert", "bobby"},
	{"samuel", "sam"},
	{"stephen", "steve"},
	{"steven", "steve"},
	{"thomas", "tom"},
	{"timothy", "tim"},
	{"william", "will"},
	{"william", "bill"},
	{"zachary", "zach"},
}

var nicknameIndex = buildNicknameIndex()

func buildNicknameIndex() map[string][]string {
	index := make(map[string][]string, len(nicknamePairs)*2)
	for _, pair := range nicknamePairs {
		index[pair[0]] = append(index[pair[0]], pair[1])
		index[pair[1]] = append(index[pair[1]], pair[0])
	}
	return index
}

// nicknameForms returns every alternate first-name form for a canonical
// first-name token, or nil when the token has no known nickname.
func nicknameForms(first string) []string {
	return nicknameIndex[first]
}
