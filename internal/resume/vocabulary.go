package resume

import (
	"regexp"
	"slices"
	"strings"
)

// Term is one vocabulary entry. Aliases are matched like the name and
// reported under it.
type Term struct {
	Name     string   `mapstructure:"name"`
	Category Category `mapstructure:"category"`
	Aliases  []string `mapstructure:"aliases"`
	// CaseSensitive applies to Name only, for names that collide with common
	// words ("Go"). Aliases always match case-insensitively.
	CaseSensitive bool `mapstructure:"case-sensitive"`
}

type compiledTerm struct {
	skill   Skill
	pattern *regexp.Regexp
}

// Vocabulary matches known skills in free text.
type Vocabulary struct {
	terms   []compiledTerm
	byAlias map[string]Skill
}

var builtinTerms = []Term{
	{Name: "Go", Category: CategoryTechnical, Aliases: []string{"Golang"}, CaseSensitive: true},
	{Name: "Python", Category: CategoryTechnical},
	{Name: "Java", Category: CategoryTechnical},
	{Name: "JavaScript", Category: CategoryTechnical, Aliases: []string{"JS", "ES6"}},
	{Name: "TypeScript", Category: CategoryTechnical},
	{Name: "C++", Category: CategoryTechnical, Aliases: []string{"cpp"}},
	{Name: "C#", Category: CategoryTechnical},
	{Name: "Rust", Category: CategoryTechnical},
	{Name: "Ruby", Category: CategoryTechnical},
	{Name: "PHP", Category: CategoryTechnical},
	{Name: "Kotlin", Category: CategoryTechnical},
	{Name: "Swift", Category: CategoryTechnical},
	{Name: "Scala", Category: CategoryTechnical},
	{Name: "SQL", Category: CategoryTechnical},
	{Name: "PostgreSQL", Category: CategoryTechnical, Aliases: []string{"Postgres"}},
	{Name: "MySQL", Category: CategoryTechnical},
	{Name: "MongoDB", Category: CategoryTechnical, Aliases: []string{"Mongo"}},
	{Name: "Redis", Category: CategoryTechnical},
	{Name: "Kafka", Category: CategoryTechnical},
	{Name: "RabbitMQ", Category: CategoryTechnical},
	{Name: "Elasticsearch", Category: CategoryTechnical},
	{Name: "ClickHouse", Category: CategoryTechnical},
	{Name: "AWS", Category: CategoryTechnical, Aliases: []string{"Amazon Web Services"}},
	{Name: "GCP", Category: CategoryTechnical, Aliases: []string{"Google Cloud"}},
	{Name: "Azure", Category: CategoryTechnical},
	{Name: "Docker", Category: CategoryTechnical},
	{Name: "Kubernetes", Category: CategoryTechnical, Aliases: []string{"k8s"}},
	{Name: "Terraform", Category: CategoryTechnical},
	{Name: "Ansible", Category: CategoryTechnical},
	{Name: "Linux", Category: CategoryTechnical},
	{Name: "Git", Category: CategoryTechnical},
	{Name: "CI/CD", Category: CategoryTechnical},
	{Name: "React", Category: CategoryTechnical, Aliases: []string{"React.js", "ReactJS"}},
	{Name: "Angular", Category: CategoryTechnical},
	{Name: "Vue", Category: CategoryTechnical, Aliases: []string{"Vue.js"}},
	{Name: "Node.js", Category: CategoryTechnical, Aliases: []string{"NodeJS"}},
	{Name: "Django", Category: CategoryTechnical},
	{Name: "Flask", Category: CategoryTechnical},
	{Name: "Spring", Category: CategoryTechnical, Aliases: []string{"Spring Boot"}},
	{Name: ".NET", Category: CategoryTechnical, Aliases: []string{"dotnet"}},
	{Name: "GraphQL", Category: CategoryTechnical},
	{Name: "REST", Category: CategoryTechnical, Aliases: []string{"RESTful"}, CaseSensitive: true},
	{Name: "gRPC", Category: CategoryTechnical},
	{Name: "Microservices", Category: CategoryTechnical, Aliases: []string{"microservice"}},
	{Name: "Machine Learning", Category: CategoryTechnical, Aliases: []string{"ML"}},
	{Name: "Deep Learning", Category: CategoryTechnical},
	{Name: "TensorFlow", Category: CategoryTechnical},
	{Name: "PyTorch", Category: CategoryTechnical},
	{Name: "pandas", Category: CategoryTechnical},
	{Name: "Spark", Category: CategoryTechnical, Aliases: []string{"Apache Spark", "PySpark"}},
	{Name: "Airflow", Category: CategoryTechnical},
	{Name: "Tableau", Category: CategoryTechnical},
	{Name: "Power BI", Category: CategoryTechnical},
	{Name: "Microsoft Excel", Category: CategoryTechnical, Aliases: []string{"MS Excel"}},
	{Name: "Prometheus", Category: CategoryTechnical},
	{Name: "Grafana", Category: CategoryTechnical},

	{Name: "Communication", Category: CategorySoft},
	{Name: "Leadership", Category: CategorySoft, Aliases: []string{"team lead", "led a team"}},
	{Name: "Mentoring", Category: CategorySoft, Aliases: []string{"mentored", "mentorship"}},
	{Name: "Teamwork", Category: CategorySoft, Aliases: []string{"collaboration", "cross-functional"}},
	{Name: "Problem Solving", Category: CategorySoft, Aliases: []string{"problem-solving"}},
	{Name: "Project Management", Category: CategorySoft},
	{Name: "Agile", Category: CategorySoft, Aliases: []string{"Scrum", "Kanban"}},
	{Name: "Stakeholder Management", Category: CategorySoft},

	{Name: "Fintech", Category: CategoryDomain, Aliases: []string{"financial services", "banking", "payments"}},
	{Name: "Healthcare", Category: CategoryDomain, Aliases: []string{"healthtech", "medical"}},
	{Name: "E-commerce", Category: CategoryDomain, Aliases: []string{"ecommerce", "retail"}},
	{Name: "Cybersecurity", Category: CategoryDomain, Aliases: []string{"information security", "infosec"}},
	{Name: "Telecommunications", Category: CategoryDomain, Aliases: []string{"telecom"}},
	{Name: "Gaming", Category: CategoryDomain, Aliases: []string{"game development"}},
	{Name: "Logistics", Category: CategoryDomain, Aliases: []string{"supply chain"}},
	{Name: "SaaS", Category: CategoryDomain},

	{Name: "AWS Certified", Category: CategoryCertification, Aliases: []string{"AWS Certified Solutions Architect", "AWS Certified Developer"}},
	{Name: "CKA", Category: CategoryCertification, Aliases: []string{"Certified Kubernetes Administrator"}},
	{Name: "PMP", Category: CategoryCertification},
	{Name: "CISSP", Category: CategoryCertification},
	{Name: "Scrum Master", Category: CategoryCertification, Aliases: []string{"CSM", "PSM"}},
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(builtinTerms...)
}

// NewVocabulary compiles terms. Later terms with an already known name are skipped.
func NewVocabulary(terms ...Term) *Vocabulary {
	v := &Vocabulary{byAlias: make(map[string]Skill)}
	v.add(terms)
	return v
}

// With returns a new vocabulary holding v's terms followed by extra.
func (v *Vocabulary) With(extra ...Term) *Vocabulary {
	out := &Vocabulary{
		terms:   slices.Clone(v.terms),
		byAlias: make(map[string]Skill, len(v.byAlias)+len(extra)),
	}
	for k, s := range v.byAlias {
		out.byAlias[k] = s
	}
	out.add(extra)
	return out
}

func (v *Vocabulary) add(terms []Term) {
	for _, t := range terms {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		if _, exists := v.byAlias[strings.ToLower(name)]; exists {
			continue
		}

		skill := Skill{Name: name, Category: ParseCategory(string(t.Category))}
		forms := append([]string{name}, t.Aliases...)
		for _, form := range forms {
			form = strings.TrimSpace(form)
			if form == "" {
				continue
			}
			v.byAlias[strings.ToLower(form)] = skill
		}

		v.terms = append(v.terms, compiledTerm{
			skill:   skill,
			pattern: termPattern(name, t.Aliases, t.CaseSensitive),
		})
	}
}

// termPattern matches the name or any alias delimited by non-word characters.
// The delimiters allow symbols that belong to names such as C++, C# and .NET.
func termPattern(name string, aliases []string, caseSensitive bool) *regexp.Regexp {
	quote := func(f string) string {
		return strings.ReplaceAll(regexp.QuoteMeta(f), " ", `\s+`)
	}

	alternatives := make([]string, 0, len(aliases)+1)
	if caseSensitive {
		alternatives = append(alternatives, quote(name))
	} else {
		alternatives = append(alternatives, "(?i:"+quote(name)+")")
	}
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			alternatives = append(alternatives, "(?i:"+quote(a)+")")
		}
	}

	return regexp.MustCompile(`(?:^|[^\w+#.])(?:` + strings.Join(alternatives, "|") + `)(?:$|[^\w+#])`)
}

// Find returns the vocabulary skills present in text, ordered by first occurrence.
func (v *Vocabulary) Find(text string) []Skill {
	type hit struct {
		skill Skill
		pos   int
	}

	var hits []hit
	for _, t := range v.terms {
		loc := t.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		hits = append(hits, hit{skill: t.skill, pos: loc[0]})
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		return a.pos - b.pos
	})

	skills := make([]Skill, 0, len(hits))
	for _, h := range hits {
		skills = append(skills, h.skill)
	}

	return skills
}

// Canonical resolves a name or alias to its vocabulary skill.
func (v *Vocabulary) Canonical(name string) (Skill, bool) {
	s, ok := v.byAlias[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}
