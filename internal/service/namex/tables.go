package namex

// letterPronunciations maps spoken letter names to the letter they
// spell. Single-character alphabetic tokens are handled separately.
var letterPronunciations = map[string]byte{
	"ay": 'A', "eh": 'A',
	"bee": 'B', "be": 'B',
	"cee": 'C', "see": 'C', "sea": 'C',
	"dee": 'D',
	"ee":  'E',
	"ef":  'F', "eff": 'F',
	"gee": 'G', "jee": 'G',
	"aitch": 'H', "haitch": 'H',
	"eye": 'I',
	"jay": 'J', "jey": 'J',
	"kay": 'K', "kaye": 'K',
	"el": 'L', "ell": 'L',
	"em": 'M',
	"en": 'N',
	"oh": 'O', "owe": 'O',
	"pee": 'P', "pea": 'P',
	"cue": 'Q', "queue": 'Q', "kew": 'Q',
	"ar": 'R', "are": 'R',
	"ess": 'S', "es": 'S',
	"tee": 'T', "tea": 'T',
	"you": 'U', "yew": 'U', "ewe": 'U',
	"vee": 'V',
	"double-you": 'W', "doubleyou": 'W', "double-u": 'W', "doubleu": 'W',
	"ex": 'X', "ecks": 'X',
	"why": 'Y', "wye": 'Y',
	"zee": 'Z', "zed": 'Z',
}

// natoAlphabet maps NATO code words, plus common everyday alternates
// callers actually use ("A as in apple"), to their letter.
var natoAlphabet = map[string]byte{
	// Standard NATO code words.
	"alpha": 'A', "alfa": 'A',
	"bravo":   'B',
	"charlie": 'C',
	"delta":   'D',
	"echo":    'E',
	"foxtrot": 'F',
	"golf":    'G',
	"hotel":   'H',
	"india":   'I',
	"juliet":  'J', "juliett": 'J',
	"kilo":     'K',
	"lima":     'L',
	"mike":     'M',
	"november": 'N',
	"oscar":    'O',
	"papa":     'P',
	"quebec":   'Q',
	"romeo":    'R',
	"sierra":   'S',
	"tango":    'T',
	"uniform":  'U',
	"victor":   'V',
	"whiskey":  'W', "whisky": 'W',
	"xray": 'X', "x-ray": 'X',
	"yankee": 'Y',
	"zulu":   'Z',

	// Everyday alternates.
	"apple": 'A', "adam": 'A',
	"boy": 'B', "bob": 'B', "baker": 'B',
	"cat": 'C', "charles": 'C',
	"dog": 'D', "david": 'D',
	"edward": 'E', "easy": 'E',
	"frank": 'F', "fox": 'F',
	"george": 'G',
	"henry": 'H', "harry": 'H',
	"ida": 'I', "item": 'I',
	"john": 'J', "jack": 'J',
	"king": 'K',
	"lincoln": 'L', "larry": 'L',
	"mary": 'M', "mother": 'M',
	"nancy": 'N', "nora": 'N',
	"ocean": 'O', "otto": 'O',
	"peter": 'P', "paul": 'P',
	"queen": 'Q',
	"robert": 'R', "roger": 'R',
	"sam": 'S', "sugar": 'S',
	"tom": 'T', "thomas": 'T',
	"union": 'U', "uncle": 'U',
	"vincent": 'V',
	"william": 'W',
	"young": 'Y', "yellow": 'Y',
	"zebra": 'Z',
}

// leadingFillers are phrases stripped from the front of an enrollment
// utterance before phonetic name extraction. Longest match wins.
var leadingFillers = []string{
	"they call me",
	"my name is",
	"call me",
	"this is",
	"i am",
	"i'm",
}

// trailingFillers start a trailing clause that is cut off before
// taking the candidate name.
var trailingFillers = []string{
	"here",
	"speaking",
	"and",
	"that's",
	"thats",
	"spelled",
}
