package dex

// moves is a built-in slice of the simulator's move data covering the moves
// the tagger and sampler care about. Unknown moves fall through to the
// graceful-degradation path in the callers.
var moves = map[string]MoveData{
	// Protect family.
	"protect":        {Category: Status, Protect: true},
	"detect":         {Category: Status, Protect: true},
	"spikyshield":    {Category: Status, Protect: true},
	"banefulbunker":  {Category: Status, Protect: true},
	"burningbulwark": {Category: Status, Protect: true},
	"kingsshield":    {Category: Status, Protect: true},
	"obstruct":       {Category: Status, Protect: true},
	"silktrap":       {Category: Status, Protect: true},
	"maxguard":       {Category: Status, Protect: true},

	// Pivot moves.
	"uturn":           {Category: Physical, Pivot: true},
	"voltswitch":      {Category: Special, Pivot: true},
	"flipturn":        {Category: Physical, Pivot: true},
	"partingshot":     {Category: Status, Pivot: true},
	"batonpass":       {Category: Status, Pivot: true},
	"teleport":        {Category: Status, Priority: -6, Pivot: true},
	"chillyreception": {Category: Status, Pivot: true},
	"shedtail":        {Category: Status, Pivot: true},

	// Healing.
	"recover":    {Category: Status, Heal: true},
	"roost":      {Category: Status, Heal: true},
	"softboiled": {Category: Status, Heal: true},
	"wish":       {Category: Status, Heal: true},
	"moonlight":  {Category: Status, Heal: true},
	"morningsun": {Category: Status, Heal: true},
	"synthesis":  {Category: Status, Heal: true},
	"slackoff":   {Category: Status, Heal: true},
	"milkdrink":  {Category: Status, Heal: true},
	"shoreup":    {Category: Status, Heal: true},
	"rest":       {Category: Status, Heal: true},
	"drainpunch": {Category: Physical, Heal: true},
	"gigadrain":  {Category: Special, Heal: true},

	// Setup.
	"swordsdance": {Category: Status, SelfBoosts: true},
	"dragondance": {Category: Status, SelfBoosts: true},
	"nastyplot":   {Category: Status, SelfBoosts: true},
	"calmmind":    {Category: Status, SelfBoosts: true},
	"bulkup":      {Category: Status, SelfBoosts: true},
	"irondefense": {Category: Status, SelfBoosts: true},
	"agility":     {Category: Status, SelfBoosts: true},
	"shellsmash":  {Category: Status, SelfBoosts: true},
	"quiverdance": {Category: Status, SelfBoosts: true},
	"curse":       {Category: Status, SelfBoosts: true},
	"scaleshot":   {Category: Physical, SelfBoosts: true},

	// Status moves.
	"stealthrock": {Category: Status},
	"spikes":      {Category: Status},
	"toxicspikes": {Category: Status},
	"stickyweb":   {Category: Status},
	"defog":       {Category: Status},
	"rapidspin":   {Category: Physical},
	"toxic":       {Category: Status},
	"willowisp":   {Category: Status},
	"thunderwave": {Category: Status},
	"taunt":       {Category: Status},
	"encore":      {Category: Status},
	"substitute":  {Category: Status},
	"leechseed":   {Category: Status},
	"haze":        {Category: Status},
	"whirlwind":   {Category: Status, Priority: -6},
	"roar":        {Category: Status, Priority: -6},

	// Priority attacks.
	"extremespeed": {Category: Physical, Priority: 2},
	"aquajet":      {Category: Physical, Priority: 1},
	"bulletpunch":  {Category: Physical, Priority: 1},
	"machpunch":    {Category: Physical, Priority: 1},
	"iceshard":     {Category: Physical, Priority: 1},
	"shadowsneak":  {Category: Physical, Priority: 1},
	"suckerpunch":  {Category: Physical, Priority: 1},
	"vacuumwave":   {Category: Special, Priority: 1},
	"grassyglide":  {Category: Physical},

	// Common attacks.
	"earthquake":   {Category: Physical},
	"closecombat":  {Category: Physical},
	"knockoff":     {Category: Physical},
	"flareblitz":   {Category: Physical},
	"icebeam":      {Category: Special},
	"thunderbolt":  {Category: Special},
	"hydropump":    {Category: Special},
	"surf":         {Category: Special},
	"fireblast":    {Category: Special},
	"flamethrower": {Category: Special},
	"shadowball":   {Category: Special},
	"moonblast":    {Category: Special},
	"dracometeor":  {Category: Special},
	"dragonclaw":   {Category: Physical},
	"outrage":      {Category: Physical},
	"stoneedge":    {Category: Physical},
	"rockslide":    {Category: Physical},
	"playrough":    {Category: Physical},
	"ironhead":     {Category: Physical},
	"psychic":      {Category: Special},
	"psyshock":     {Category: Special},
	"darkpulse":    {Category: Special},
	"sludgebomb":   {Category: Special},
	"energyball":   {Category: Special},
	"leafstorm":    {Category: Special},
	"hurricane":    {Category: Special},
	"bravebird":    {Category: Physical},
	"doubleedge":   {Category: Physical},
	"bodypress":    {Category: Physical},
	"heavyslam":    {Category: Physical},
	"scald":        {Category: Special},
	"hex":          {Category: Special},
	"foulplay":     {Category: Physical},
}

// speciesSets carries a small built-in sample of per-species candidate sets
// used to fill unrevealed opponent movesets. Real deployments extend this
// table; lookups for absent species return nil and the sampler falls back
// to what has been revealed.
var speciesSets = map[string][]MoveSet{
	"greattusk": {
		{Moves: []string{"headlongrush", "closecombat", "knockoff", "rapidspin"}, Chance: 0.45},
		{Moves: []string{"earthquake", "closecombat", "stealthrock", "rapidspin"}, Chance: 0.35},
		{Moves: []string{"headlongrush", "icespinner", "bodypress", "bulkup"}, Chance: 0.2},
	},
	"kingambit": {
		{Moves: []string{"kowtowcleave", "suckerpunch", "ironhead", "swordsdance"}, Chance: 0.6},
		{Moves: []string{"kowtowcleave", "suckerpunch", "lowkick", "substitute"}, Chance: 0.4},
	},
	"gholdengo": {
		{Moves: []string{"makeitrain", "shadowball", "nastyplot", "recover"}, Chance: 0.55},
		{Moves: []string{"makeitrain", "shadowball", "trick", "thunderwave"}, Chance: 0.45},
	},
	"dragapult": {
		{Moves: []string{"dragondarts", "hex", "willowisp", "uturn"}, Chance: 0.5},
		{Moves: []string{"shadowball", "dracometeor", "uturn", "flamethrower"}, Chance: 0.5},
	},
	"toxapex": {
		{Moves: []string{"surf", "toxic", "recover", "haze"}, Chance: 0.7},
		{Moves: []string{"scald", "toxicspikes", "recover", "banefulbunker"}, Chance: 0.3},
	},
	"corviknight": {
		{Moves: []string{"bravebird", "roost", "defog", "uturn"}, Chance: 0.65},
		{Moves: []string{"bodypress", "irondefense", "roost", "bravebird"}, Chance: 0.35},
	},
	"garchomp": {
		{Moves: []string{"earthquake", "outrage", "swordsdance", "scaleshot"}, Chance: 0.5},
		{Moves: []string{"earthquake", "dracometeor", "stealthrock", "fireblast"}, Chance: 0.5},
	},
	"rotomwash": {
		{Moves: []string{"hydropump", "voltswitch", "willowisp", "painsplit"}, Chance: 1.0},
	},
}
