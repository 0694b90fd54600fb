package seeder

func Defaults() []Seeder {
	return []Seeder{
		DirectorySeeder{Postings: DemoPostings()},
	}
}
